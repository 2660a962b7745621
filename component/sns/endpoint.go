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
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/rulego/routego/api/types"
	"github.com/rulego/routego/utils/json"
)

// EndpointConfig holds the aws-sns endpoint options.
//
// EndpointConfig SNS端点配置
type EndpointConfig struct {
	// TopicName is set from the uri path unless it is an ARN.
	TopicName string `uri:"-"`
	// TopicArn is set from the uri path when it starts with arn:, otherwise resolved on start.
	TopicArn string `uri:"-"`

	Region    string `uri:"region"`
	AccessKey string `uri:"accessKey"`
	SecretKey string `uri:"secretKey"`
	ProxyHost string `uri:"proxyHost"`
	ProxyPort int    `uri:"proxyPort"`
	// AutoCreateTopic creates the topic when no topic with the name exists. Default true.
	AutoCreateTopic             bool   `uri:"autoCreateTopic"`
	ServerSideEncryptionEnabled bool   `uri:"serverSideEncryptionEnabled"`
	KmsMasterKeyId              string `uri:"kmsMasterKeyId"`
	// Policy is a JSON access policy applied to the topic on start.
	Policy string `uri:"policy"`
	// SubscribeSNStoSQS subscribes QueueUrl to the topic on start. Requires an SQS client.
	SubscribeSNStoSQS bool   `uri:"subscribeSNStoSQS"`
	QueueUrl          string `uri:"queueUrl"`
	Subject           string `uri:"subject"`
	// MessageStructure is "json" to send a different message per protocol.
	MessageStructure string `uri:"messageStructure"`

	SNSClient Client    `uri:"-"`
	SQSClient SQSClient `uri:"-"`
}

var (
	_ types.Endpoint = (*Endpoint)(nil)
	_ types.Service  = (*Endpoint)(nil)
)

// Endpoint is producer only. Start resolves the topic ARN once and is shared
// by every producer of the endpoint.
//
// Endpoint SNS端点
type Endpoint struct {
	uri                  string
	config               EndpointConfig
	headerFilterStrategy types.HeaderFilterStrategy
	logger               types.Logger
	typeConverter        types.TypeConverter

	mu      sync.Mutex
	started bool
	client  Client
	// ownClient is true when Start built the client
	ownClient bool
}

func (e *Endpoint) EndpointUri() string {
	return e.uri
}

// Config returns the options, including the topic ARN once started.
func (e *Endpoint) Config() EndpointConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// Client is the client in use, nil before Start.
func (e *Endpoint) Client() Client {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client
}

func (e *Endpoint) HeaderFilterStrategy() types.HeaderFilterStrategy {
	return e.headerFilterStrategy
}

// SetHeaderFilterStrategy replaces the strategy deciding which headers become message attributes.
func (e *Endpoint) SetHeaderFilterStrategy(strategy types.HeaderFilterStrategy) {
	e.headerFilterStrategy = strategy
}

func (e *Endpoint) CreateConsumer(processor types.Processor) (types.Consumer, error) {
	return nil, types.ErrConsumerNotSupported
}

func (e *Endpoint) CreateProducer() (types.Producer, error) {
	return &Producer{endpoint: e}, nil
}

// Start resolves the topic ARN, creating the topic if allowed, then applies the
// policy and the SQS subscription.
func (e *Endpoint) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}
	if e.config.SubscribeSNStoSQS && (e.config.SQSClient == nil || e.config.QueueUrl == "") {
		return types.NewIllegalArgumentError("using the subscribeSNStoSQS option requires both an SQS client and the queueUrl option")
	}
	ctx := context.Background()
	if e.config.SNSClient != nil {
		e.client = e.config.SNSClient
	} else {
		client, err := e.newClient(ctx)
		if err != nil {
			return err
		}
		e.client, e.ownClient = client, true
	}
	if e.headerFilterStrategy == nil {
		e.headerFilterStrategy = types.NewHeaderFilterStrategy()
	}

	if e.config.TopicArn == "" {
		arn, err := e.findTopic(ctx)
		if err != nil {
			return err
		}
		e.config.TopicArn = arn
	}
	if e.config.TopicArn == "" && e.config.AutoCreateTopic {
		input := &sns.CreateTopicInput{Name: aws.String(e.config.TopicName)}
		if e.config.ServerSideEncryptionEnabled && e.config.KmsMasterKeyId != "" {
			input.Attributes = map[string]string{"KmsMasterKeyId": e.config.KmsMasterKeyId}
		}
		out, err := e.client.CreateTopic(ctx, input)
		if err != nil {
			return fmt.Errorf("create topic %s: %w", e.config.TopicName, err)
		}
		e.config.TopicArn = aws.ToString(out.TopicArn)
		e.logf("topic created with Amazon resource name: %s", e.config.TopicArn)
	}
	if e.config.TopicArn == "" {
		return fmt.Errorf("topic %s not found and autoCreateTopic is false", e.config.TopicName)
	}

	if e.config.Policy != "" {
		_, err := e.client.SetTopicAttributes(ctx, &sns.SetTopicAttributesInput{
			TopicArn:       aws.String(e.config.TopicArn),
			AttributeName:  aws.String("Policy"),
			AttributeValue: aws.String(e.config.Policy),
		})
		if err != nil {
			return fmt.Errorf("update policy of topic %s: %w", e.config.TopicArn, err)
		}
	}

	if e.config.SubscribeSNStoSQS {
		subscriptionArn, err := subscribeQueue(ctx, e.client, e.config.SQSClient, e.config.TopicArn, e.config.QueueUrl)
		if err != nil {
			return err
		}
		e.logf("subscription of SQS queue to SNS topic done with Amazon resource name: %s", subscriptionArn)
	}
	e.started = true
	return nil
}

// Stop drops a client built by Start. An injected client is left alone.
func (e *Endpoint) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ownClient {
		e.client = nil
		e.ownClient = false
	}
	e.started = false
	return nil
}

// findTopic pages through ListTopics looking for an ARN ending in :name.
func (e *Endpoint) findTopic(ctx context.Context) (string, error) {
	suffix := ":" + e.config.TopicName
	var next *string
	for {
		out, err := e.client.ListTopics(ctx, &sns.ListTopicsInput{NextToken: next})
		if err != nil {
			return "", fmt.Errorf("list topics: %w", err)
		}
		for _, topic := range out.Topics {
			if arn := aws.ToString(topic.TopicArn); strings.HasSuffix(arn, suffix) {
				return arn, nil
			}
		}
		if aws.ToString(out.NextToken) == "" {
			return "", nil
		}
		next = out.NextToken
	}
}

// newClient builds a client from the region, static credentials and proxy
// options, falling back to the default AWS configuration chain.
func (e *Endpoint) newClient(ctx context.Context) (*sns.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if e.config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(e.config.Region))
	}
	if e.config.AccessKey != "" && e.config.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(e.config.AccessKey, e.config.SecretKey, "")))
	}
	if e.config.ProxyHost != "" && e.config.ProxyPort > 0 {
		proxy := &url.URL{Scheme: "http", Host: net.JoinHostPort(e.config.ProxyHost, strconv.Itoa(e.config.ProxyPort))}
		opts = append(opts, awsconfig.WithHTTPClient(awshttp.NewBuildableClient().WithTransportOptions(func(t *http.Transport) {
			t.Proxy = http.ProxyURL(proxy)
		})))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sns.NewFromConfig(cfg), nil
}

func (e *Endpoint) logf(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

// subscribeQueue allows the topic to send to the queue and subscribes the
// queue to the topic. It returns the subscription ARN.
func subscribeQueue(ctx context.Context, client Client, sqsClient SQSClient, topicArn, queueUrl string) (string, error) {
	attrs, err := sqsClient.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(queueUrl),
		AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameQueueArn},
	})
	if err != nil {
		return "", fmt.Errorf("get attributes of queue %s: %w", queueUrl, err)
	}
	queueArn := attrs.Attributes[string(sqstypes.QueueAttributeNameQueueArn)]
	if queueArn == "" {
		return "", fmt.Errorf("queue %s has no QueueArn attribute", queueUrl)
	}

	policy, err := queuePolicy(topicArn, queueArn)
	if err != nil {
		return "", err
	}
	_, err = sqsClient.SetQueueAttributes(ctx, &sqs.SetQueueAttributesInput{
		QueueUrl:   aws.String(queueUrl),
		Attributes: map[string]string{string(sqstypes.QueueAttributeNamePolicy): policy},
	})
	if err != nil {
		return "", fmt.Errorf("set policy of queue %s: %w", queueUrl, err)
	}

	out, err := client.Subscribe(ctx, &sns.SubscribeInput{
		TopicArn: aws.String(topicArn),
		Protocol: aws.String("sqs"),
		Endpoint: aws.String(queueArn),
	})
	if err != nil {
		return "", fmt.Errorf("subscribe queue %s to topic %s: %w", queueArn, topicArn, err)
	}
	return aws.ToString(out.SubscriptionArn), nil
}

// queuePolicy allows topicArn, and only it, to send messages to queueArn.
func queuePolicy(topicArn, queueArn string) (string, error) {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []interface{}{
			map[string]interface{}{
				"Sid":       "topic-subscription-" + topicArn,
				"Effect":    "Allow",
				"Principal": map[string]interface{}{"AWS": "*"},
				"Action":    "SQS:SendMessage",
				"Resource":  queueArn,
				"Condition": map[string]interface{}{
					"ArnLike": map[string]interface{}{"aws:SourceArn": topicArn},
				},
			},
		},
	}
	data, err := json.Marshal(policy)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
