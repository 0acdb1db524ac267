package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultOpTimeout is the maximum time to wait for publish/subscribe acks.
	defaultOpTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on
	// disconnect, in milliseconds.
	defaultDisconnectQuiesce = 1000

	// defaultKeepAliveSec is the keepalive interval when the config omits one.
	defaultKeepAliveSec = 30

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2
)

// Options describe one broker session. Zero values pick the defaults noted
// per field.
type Options struct {
	BrokerHost string
	BrokerPort int64
	ClientID   string
	Username   string
	Password   string

	// KeepAliveSec defaults to 30.
	KeepAliveSec int64

	// CleanSession defaults to true; set DirtySession to keep broker state.
	DirtySession bool
}

// URL renders the broker address for paho.
func (o Options) URL() string {
	return fmt.Sprintf("tcp://%s:%d", o.BrokerHost, o.BrokerPort)
}

// buildClientOptions creates paho MQTT options for the session.
//
// This configures:
//   - Broker URL and client ID
//   - Authentication credentials (if provided)
//   - MQTT 3.1.1, clean session by default
//   - Auto-reconnect with exponential backoff
func buildClientOptions(o Options) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(o.URL())
	opts.SetClientID(o.ClientID)
	opts.SetProtocolVersion(4) // MQTT 3.1.1

	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	opts.SetCleanSession(!o.DirtySession)

	keepAlive := o.KeepAliveSec
	if keepAlive <= 0 {
		keepAlive = defaultKeepAliveSec
	}
	opts.SetKeepAlive(time.Duration(keepAlive) * time.Second)

	// Auto-reconnect: the gateway stays up across broker restarts and keeps
	// retrying the initial connection in the background.
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(defaultConnectTimeout)

	return opts
}
