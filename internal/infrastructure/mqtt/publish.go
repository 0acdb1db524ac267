package mqtt

import (
	"fmt"
)

// Publish sends a message to the specified MQTT topic.
//
// Publishing fails closed while the session is down: there is no in-process
// queue, and the caller sees ErrNotConnected.
//
// Parameters:
//   - topic: the topic to publish to (e.g. "cmd/fan01")
//   - payload: the message payload
//   - qos: quality of service level (0, 1, or 2); the gateway uses 0
//   - retained: whether the broker should retain the message
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultOpTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishString is a convenience method that publishes a string payload.
func (c *Client) PublishString(topic, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}
