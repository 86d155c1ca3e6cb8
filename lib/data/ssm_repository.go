package data

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"

	"apar/lib/constants"
)

type SSMRepository interface {
	GetParameters() (map[string]string, error)
}

type SSMClientInterface interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// SSMDao reads every parameter under the /apar path, following pagination
type SSMDao struct {
	SSM    SSMClientInterface
	Logger *logrus.Logger
}

func (client *SSMDao) GetParameters() (map[string]string, error) {
	params := map[string]string{}
	input := &ssm.GetParametersByPathInput{
		Path:           aws.String(constants.SSM_PATH),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	}

	pages := 0
	for {
		output, err := client.SSM.GetParametersByPath(context.TODO(), input)
		if err != nil {
			client.Logger.WithFields(logrus.Fields{
				"path":  constants.SSM_PATH,
				"page":  pages,
				"error": err.Error(),
			}).Error("Failed to read SSM parameters")
			return nil, err
		}
		pages++

		for _, param := range output.Parameters {
			params[*param.Name] = *param.Value
		}

		if output.NextToken == nil {
			break
		}
		input.NextToken = output.NextToken
	}

	client.Logger.WithFields(logrus.Fields{
		"path":  constants.SSM_PATH,
		"count": len(params),
	}).Debug("Loaded SSM parameters")
	return params, nil
}
