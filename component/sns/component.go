/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package sns provides the aws-sns producer endpoint. It publishes the In body
// of an exchange to an SNS topic, resolving or creating the topic on start.
//
//	aws-sns:orders?region=eu-west-1&subject=order&autoCreateTopic=true
//	aws-sns:arn:aws:sns:eu-west-1:123456789012:orders
//
// Package sns AWS SNS 生产者端点
package sns

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/utils/maps"
)

const (
	// Scheme 组件类型
	Scheme = "aws-sns"

	// Subject overrides the subject option for one message.
	Subject = "CamelAwsSnsSubject"
	// MessageId is set on the In message after publishing.
	MessageId = "CamelAwsSnsMessageId"
	// MessageStructure overrides the messageStructure option for one message.
	MessageStructure = "CamelAwsSnsMessageStructure"
)

// Client is the subset of the SNS API the endpoint calls. *sns.Client implements it.
type Client interface {
	ListTopics(ctx context.Context, params *sns.ListTopicsInput, optFns ...func(*sns.Options)) (*sns.ListTopicsOutput, error)
	CreateTopic(ctx context.Context, params *sns.CreateTopicInput, optFns ...func(*sns.Options)) (*sns.CreateTopicOutput, error)
	SetTopicAttributes(ctx context.Context, params *sns.SetTopicAttributesInput, optFns ...func(*sns.Options)) (*sns.SetTopicAttributesOutput, error)
	Subscribe(ctx context.Context, params *sns.SubscribeInput, optFns ...func(*sns.Options)) (*sns.SubscribeOutput, error)
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SQSClient is the subset of the SQS API used to subscribe a queue to the topic.
type SQSClient interface {
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
	SetQueueAttributes(ctx context.Context, params *sqs.SetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.SetQueueAttributesOutput, error)
}

var (
	_ Client    = (*sns.Client)(nil)
	_ SQSClient = (*sqs.Client)(nil)
)

var _ types.Component = (*Component)(nil)

// Component creates aws-sns endpoints. Clients set here are shared by every
// endpoint and never closed by them.
//
// Component SNS组件
type Component struct {
	SNSClient Client
	SQSClient SQSClient
	// HeaderFilterStrategy decides which headers become message attributes.
	HeaderFilterStrategy types.HeaderFilterStrategy

	config types.Config
}

// New 创建SNS组件
func New(config types.Config) *Component {
	return &Component{config: config}
}

func (c *Component) Scheme() string {
	return Scheme
}

// CreateEndpoint 创建端点，remaining 是主题名称或ARN
func (c *Component) CreateEndpoint(ctx types.Context, uri, remaining string, params map[string]interface{}) (types.Endpoint, error) {
	if remaining == "" {
		return nil, types.NewIllegalArgumentError("topic name must be specified: %s", uri)
	}
	config := EndpointConfig{AutoCreateTopic: true}
	params, err := c.resolveClients(ctx, params, &config)
	if err != nil {
		return nil, err
	}
	unused, err := maps.WeakMap2Struct(params, &config)
	if err != nil {
		return nil, err
	}
	if len(unused) > 0 {
		return nil, fmt.Errorf("failed to resolve endpoint %s due to unknown parameters: %s", uri, strings.Join(unused, ","))
	}
	if strings.HasPrefix(remaining, "arn:") {
		config.TopicArn = remaining
	} else {
		config.TopicName = remaining
	}
	if config.SNSClient == nil {
		config.SNSClient = c.SNSClient
	}
	if config.SQSClient == nil {
		config.SQSClient = c.SQSClient
	}
	cfg := c.config
	if ctx != nil {
		cfg = ctx.Config()
	}
	return &Endpoint{
		uri:                  uri,
		config:               config,
		headerFilterStrategy: c.HeaderFilterStrategy,
		logger:               cfg.Logger,
		typeConverter:        cfg.TypeConverter,
	}, nil
}

// resolveClients takes the amazonSNSClient and amazonSQSClient parameters,
// given as #name references to registry beans, out of params.
func (c *Component) resolveClients(ctx types.Context, params map[string]interface{}, config *EndpointConfig) (map[string]interface{}, error) {
	rest := make(map[string]interface{}, len(params))
	for k, v := range params {
		if k != "amazonSNSClient" && k != "amazonSQSClient" {
			rest[k] = v
			continue
		}
		ref, _ := v.(string)
		if ctx == nil || !strings.HasPrefix(ref, "#") {
			return nil, types.NewIllegalArgumentError("%s must reference a registry bean as #name", k)
		}
		bean, ok := ctx.Registry().Lookup(ref[1:])
		if !ok {
			return nil, types.NewIllegalArgumentError("no bean %s in registry", ref[1:])
		}
		var valid bool
		if k == "amazonSNSClient" {
			config.SNSClient, valid = bean.(Client)
		} else {
			config.SQSClient, valid = bean.(SQSClient)
		}
		if !valid {
			return nil, types.NewIllegalArgumentError("bean %s is a %T, not a client for %s", ref[1:], bean, k)
		}
	}
	return rest, nil
}
