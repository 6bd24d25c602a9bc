//go:build tinygo

package telemetry

import (
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"runtime"
	"time"

	"github.com/harveysanders/pwmbridge/pwmbridgew/netstack"
	"github.com/soypat/lneto/tcp"
	mqtt "github.com/soypat/natiu-mqtt"
)

// ConnectAndPublish connects to the broker at addr ("host:port") and publishes
// every event received. It reconnects whenever the connection drops and only
// returns on configuration errors.
func (c *Client) ConnectAndPublish(stack *netstack.Stack, addr string, events <-chan Event) error {
	const pollTime = 5 * time.Millisecond

	opts := c.settings()
	logger := opts.logger

	host, portStr, err := SplitHostPort(addr)
	if err != nil {
		return errors.New("parsing host:port from " + addr + ": " + err.Error())
	}
	port := ParsePort(portStr)
	if port == 0 {
		return errors.New("invalid port in " + addr)
	}
	topic := opts.topic

	lstack := stack.Lneto()
	rstack := lstack.StackRetrying(pollTime)

	brokerAddr, err := netip.ParseAddr(host)
	if err != nil {
		logger.Info("telemetry:dns-resolve", slog.String("host", host))
		addrs, err := rstack.DoLookupIP(host, 5*time.Second, 3)
		if err != nil {
			return errors.New("dns lookup for " + host + ": " + err.Error())
		}
		if len(addrs) == 0 {
			return errors.New("dns lookup for " + host + ": no addresses returned")
		}
		brokerAddr = addrs[0]
	}
	serverAddr := netip.AddrPortFrom(brokerAddr, port)
	logger.Info("telemetry:broker", slog.String("addr", serverAddr.String()), slog.String("topic", topic))

	cfg := mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 512)},
		OnPub: func(_ mqtt.Header, varPub mqtt.VariablesPublish, _ io.Reader) error {
			logger.Debug("telemetry:received", slog.String("topic", string(varPub.TopicName)))
			return nil
		},
	}
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(c.ID))
	if c.Username != "" {
		varconn.Username = []byte(c.Username)
		if c.Password != "" {
			varconn.Password = []byte(c.Password)
		}
	}
	mqttClient := mqtt.NewClient(cfg)
	pubVar := mqtt.VariablesPublish{TopicName: []byte(topic)}

	var conn tcp.Conn
	err = conn.Configure(tcp.ConnConfig{
		RxBuf:             make([]byte, c.TCPBufSize),
		TxBuf:             make([]byte, c.TCPBufSize),
		TxPacketQueueSize: 3,
	})
	if err != nil {
		return errors.New("tcp configure: " + err.Error())
	}

	extendDeadline := func() {
		conn.SetDeadline(time.Now().Add(opts.timeout))
	}

	closeConn := func(reason string) {
		logger.Error("telemetry:closing", slog.String("reason", reason))
		conn.Close()
		for i := 0; i < 50 && !conn.State().IsClosed(); i++ {
			time.Sleep(100 * time.Millisecond)
		}
		conn.Abort()
	}

	for {
		localPort := uint16(lstack.Prand32()>>17) + 1024
		c.status("MQTT", "Dialing...")
		err = rstack.DoDialTCP(&conn, localPort, serverAddr, 10*time.Second, 3)
		if err != nil {
			closeConn("dial failed: " + err.Error())
			time.Sleep(2 * time.Second)
			continue
		}

		extendDeadline()
		err = mqttClient.StartConnect(&conn, &varconn)
		if err != nil {
			c.status("MQTT", "Connect failed")
			closeConn("connect failed: " + err.Error())
			continue
		}
		for retries := 50; retries > 0 && !mqttClient.IsConnected(); retries-- {
			time.Sleep(100 * time.Millisecond)
			if err := mqttClient.HandleNext(); err != nil {
				logger.Error("telemetry:handle-next", slog.String("err", err.Error()))
			}
		}
		if !mqttClient.IsConnected() {
			c.status("MQTT", "Timed out")
			closeConn("connect timed out")
			continue
		}
		logger.Info("telemetry:connected")
		c.status("MQTT", "Connected")

		heartbeat := time.NewTicker(opts.heartbeat)
		for mqttClient.IsConnected() {
			select {
			case ev := <-events:
				pubVar.PacketIdentifier = uint16(lstack.Prand32())
				err = publish(mqttClient, extendDeadline, pubVar, ev)
				if err != nil {
					logger.Error("telemetry:publish", slog.Uint64("seq", uint64(ev.Seq)), slog.String("err", err.Error()))
					continue
				}
				logger.Debug("telemetry:published", slog.Uint64("seq", uint64(ev.Seq)))
			case <-heartbeat.C:
				err = ping(mqttClient, extendDeadline)
				if err != nil {
					logger.Error("telemetry:ping", slog.String("err", err.Error()))
				}
			default:
				// Single core: yield to the bridge loop and the packet pump.
				runtime.Gosched()
			}
		}
		heartbeat.Stop()

		logger.Error("telemetry:disconnected", slog.Any("reason", mqttClient.Err()))
		c.status("MQTT", "Reconnecting...")
		closeConn("disconnected")
	}
}
