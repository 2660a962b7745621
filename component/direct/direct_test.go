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

package direct

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/routego/api/types"
)

func endpoint(t *testing.T, c *Component, name string) types.Endpoint {
	e, err := c.CreateEndpoint(nil, "direct:"+name, name, nil)
	require.NoError(t, err)
	return e
}

func TestDirectCallsConsumerSynchronously(t *testing.T) {
	c := New()
	e := endpoint(t, c, "start")
	consumer, err := e.CreateConsumer(types.ProcessorFunc(func(ex *types.Exchange) error {
		ex.In().SetBody("handled " + ex.In().Body().(string))
		return nil
	}))
	require.NoError(t, err)

	producer, err := endpoint(t, c, "start").CreateProducer()
	require.NoError(t, err)
	ex := types.NewExchange(context.Background())
	ex.In().SetBody("a")
	assert.ErrorIs(t, producer.Process(ex), types.ErrNoSuchEndpoint)

	require.NoError(t, consumer.Start())
	require.NoError(t, producer.Process(ex))
	assert.Equal(t, "handled a", ex.In().Body())

	require.NoError(t, consumer.Stop())
	assert.ErrorIs(t, producer.Process(ex), types.ErrNoSuchEndpoint)
}

func TestDirectDuplicateConsumer(t *testing.T) {
	c := New()
	noop := types.ProcessorFunc(func(ex *types.Exchange) error { return nil })
	first, _ := endpoint(t, c, "x").CreateConsumer(noop)
	second, _ := endpoint(t, c, "x").CreateConsumer(noop)
	require.NoError(t, first.Start())
	assert.ErrorIs(t, second.Start(), types.ErrDuplicateRegistration)
	require.NoError(t, second.Stop())
	_, ok := c.consumer("x")
	assert.True(t, ok)
}

func TestDirectErrorsAndPanics(t *testing.T) {
	c := New()
	failing, _ := endpoint(t, c, "fail").CreateConsumer(types.ProcessorFunc(func(ex *types.Exchange) error {
		return errors.New("failed")
	}))
	panicking, _ := endpoint(t, c, "panic").CreateConsumer(types.ProcessorFunc(func(ex *types.Exchange) error {
		panic("boom")
	}))
	require.NoError(t, failing.Start())
	require.NoError(t, panicking.Start())

	producer, _ := endpoint(t, c, "fail").CreateProducer()
	assert.EqualError(t, producer.Process(types.NewExchange(context.Background())), "failed")
	producer, _ = endpoint(t, c, "panic").CreateProducer()
	assert.ErrorContains(t, producer.Process(types.NewExchange(context.Background())), "boom")
}

func TestDirectEndpointValidation(t *testing.T) {
	c := New()
	_, err := c.CreateEndpoint(nil, "direct:", "", nil)
	assert.Error(t, err)
	_, err = c.CreateEndpoint(nil, "direct:a?x=1", "a", map[string]interface{}{"x": "1"})
	assert.Error(t, err)
}
