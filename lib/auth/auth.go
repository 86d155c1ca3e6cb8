package auth

import (
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// BadgeHeader carries the officer badge when no authorizer claim is present
const BadgeHeader = "x-officer-badge"

// BadgeFromRequest identifies the calling officer. The first non-blank source
// wins: the "badge" claim in the authorizer context, the X-Officer-Badge
// header, then the badge query parameter. An empty result means no officer
// context, which callers treat as an unscoped request.
func BadgeFromRequest(request events.APIGatewayProxyRequest) string {
	if badge := badgeFromAuthorizer(request.RequestContext.Authorizer); badge != "" {
		return badge
	}

	for name, value := range request.Headers {
		if strings.EqualFold(name, BadgeHeader) && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}

	return strings.TrimSpace(request.QueryStringParameters["badge"])
}

func badgeFromAuthorizer(authorizer map[string]interface{}) string {
	if authorizer == nil {
		return ""
	}

	claimsMap := authorizer
	if nested, ok := authorizer["claims"].(map[string]interface{}); ok {
		claimsMap = nested
	}

	if badge, ok := claimsMap["badge"].(string); ok {
		return strings.TrimSpace(badge)
	}
	return ""
}
