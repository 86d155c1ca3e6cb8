package clients

import (
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// NewSSMClient creates the Parameter Store client used to read /apar configuration
func NewSSMClient(isLocal bool) *ssm.Client {
	return ssm.NewFromConfig(loadAWSConfig(isLocal))
}
