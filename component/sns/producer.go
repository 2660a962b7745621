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

package sns

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/typeconv"
	"github.com/rulego/routego/utils/cast"
)

var _ types.Producer = (*Producer)(nil)

// Producer publishes the In body to the endpoint topic.
//
// Producer SNS生产者
type Producer struct {
	endpoint *Endpoint
}

func (p *Producer) Endpoint() types.Endpoint {
	return p.endpoint
}

// Start starts the endpoint, resolving the topic.
func (p *Producer) Start() error {
	return p.endpoint.Start()
}

func (p *Producer) Stop() error {
	return nil
}

func (p *Producer) Process(exchange *types.Exchange) error {
	e := p.endpoint
	client := e.Client()
	if client == nil {
		return errors.New("aws-sns endpoint is not started")
	}
	config := e.Config()
	in := exchange.In()

	tc := e.typeConverter
	if tc == nil {
		tc = typeconv.Default()
	}
	message, err := typeconv.MandatoryConvertTo[string](tc, in.Body())
	if err != nil {
		return err
	}
	input := &sns.PublishInput{
		TopicArn:          aws.String(config.TopicArn),
		Message:           aws.String(message),
		MessageAttributes: p.messageAttributes(exchange),
	}
	if subject := firstNonEmpty(in.HeaderString(Subject), config.Subject); subject != "" {
		input.Subject = aws.String(subject)
	}
	if structure := firstNonEmpty(in.HeaderString(MessageStructure), config.MessageStructure); structure != "" {
		input.MessageStructure = aws.String(structure)
	}

	out, err := client.Publish(exchange.Context(), input)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", config.TopicArn, err)
	}
	in.SetHeader(MessageId, aws.ToString(out.MessageId))
	return nil
}

// messageAttributes maps the headers passing the filter strategy. Strings and
// numbers become String and Number attributes, []byte a Binary attribute.
// Other values are skipped.
func (p *Producer) messageAttributes(exchange *types.Exchange) map[string]snstypes.MessageAttributeValue {
	filter := p.endpoint.HeaderFilterStrategy()
	attributes := make(map[string]snstypes.MessageAttributeValue)
	for name, value := range exchange.In().Headers() {
		if filter != nil && filter.ApplyFilterToCamelHeaders(name, value, exchange) {
			continue
		}
		switch v := value.(type) {
		case string:
			attributes[name] = snstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
		case []byte:
			attributes[name] = snstypes.MessageAttributeValue{DataType: aws.String("Binary"), BinaryValue: v}
		case int, int32, int64, float32, float64:
			attributes[name] = snstypes.MessageAttributeValue{DataType: aws.String("Number"), StringValue: aws.String(cast.ToString(v))}
		}
	}
	if len(attributes) == 0 {
		return nil
	}
	return attributes
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
