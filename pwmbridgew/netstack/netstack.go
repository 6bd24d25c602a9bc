//go:build tinygo

// Package netstack brings up WiFi on a Pico W and exposes an lneto IP stack
// for the telemetry client.
//
// Bring-up follows the soypat/cyw43439 examples:
//   - initialize the CYW43439 and join a WPA2 or open network
//   - configure the lneto stack with the chip's MAC address
//   - request an address over DHCP, falling back to a static address
//   - pump packets between the chip and the stack from a goroutine
package netstack

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"runtime"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/lneto/x/xnet"
)

const mtu = cyw43439.MTU

// Set with -ldflags "-X github.com/harveysanders/pwmbridge/pwmbridgew/netstack.ssid=..."
var (
	ssid string
	pass string
)

// SSID returns the WiFi SSID set via linker flags.
func SSID() string { return ssid }

// Password returns the WiFi password set via linker flags.
func Password() string { return pass }

// Config configures WiFi and the IP stack.
type Config struct {
	SSID     string
	Password string // Empty joins an open network.
	// Hostname is used for DHCP requests.
	Hostname string
	// MaxTCPConns is the number of TCP connections the stack can hold. Defaults to 1.
	MaxTCPConns int
	// StaticAddr is requested over DHCP and used as-is if DHCP fails.
	StaticAddr netip.Addr
	Logger     *slog.Logger
}

// Stack owns the CYW43439 device and the lneto stack on top of it.
type Stack struct {
	s       xnet.StackAsync
	static  netip.Addr
	dev     *cyw43439.Device
	log     *slog.Logger
	sendbuf []byte
}

// Up initializes the chip, joins the network and resets the IP stack. Joining
// is retried every 5 seconds until it succeeds.
func Up(cfg Config) (*Stack, error) {
	if cfg.Hostname == "" {
		return nil, errors.New("empty hostname")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(127),
		}))
	}

	start := time.Now()
	dev := cyw43439.NewPicoWDevice()
	dev.SetLogger(logger)

	err := dev.Init(cyw43439.DefaultWifiConfig())
	if err != nil {
		return nil, errors.New("wifi init: " + err.Error())
	}
	logger.Info("netstack:init", slog.Duration("duration", time.Since(start)))

	for {
		err = dev.JoinWPA2(cfg.SSID, cfg.Password)
		if err == nil {
			break
		}
		logger.Error("netstack:join-failed", slog.String("ssid", cfg.SSID), slog.String("err", err.Error()))
		time.Sleep(5 * time.Second)
	}

	mac, err := dev.HardwareAddr6()
	if err != nil {
		return nil, errors.New("get hardware address: " + err.Error())
	}
	logger.Info("netstack:joined", slog.String("ssid", cfg.SSID), slog.String("mac", net.HardwareAddr(mac[:]).String()))

	stack := &Stack{
		dev:     dev,
		log:     logger,
		sendbuf: make([]byte, mtu),
		static:  cfg.StaticAddr,
	}
	maxTCP := cfg.MaxTCPConns
	if maxTCP < 1 {
		maxTCP = 1
	}
	err = stack.s.Reset(xnet.StackConfig{
		Hostname:        cfg.Hostname,
		MaxTCPConns:     maxTCP,
		RandSeed:        time.Since(start).Nanoseconds(),
		HardwareAddress: mac,
		MTU:             mtu,
	})
	if err != nil {
		return nil, errors.New("stack reset: " + err.Error())
	}
	dev.RecvEthHandle(func(pkt []byte) error {
		return stack.s.Demux(pkt, 0)
	})
	return stack, nil
}

// Start launches the packet pump and then configures the address over DHCP,
// falling back to cfg.StaticAddr. Call it once; the pump keeps running even
// when DHCP fails.
func (s *Stack) Start() error {
	go s.pump()
	return s.dhcp()
}

func (s *Stack) dhcp() error {
	requested, static, err := dhcpRequest(s.static)
	if err != nil {
		return err
	}
	rstack := s.s.StackRetrying(50 * time.Millisecond)
	s.log.Info("netstack:dhcp-start")
	results, err := rstack.DoDHCPv4(requested, 3*time.Second, 3)
	if err != nil {
		if static {
			s.log.Warn("netstack:dhcp-static-fallback", slog.String("ip", s.static.String()))
			s.s.SetIPAddr(s.static)
			return nil
		}
		return errors.New("dhcp: " + err.Error())
	}
	err = s.s.AssimilateDHCPResults(results)
	if err != nil {
		return errors.New("assimilate dhcp: " + err.Error())
	}
	gatewayHW, err := rstack.DoResolveHardwareAddress6(results.Router, 500*time.Millisecond, 4)
	if err != nil {
		return errors.New("resolve gateway: " + err.Error())
	}
	s.s.SetGateway6(gatewayHW)

	s.log.Info("netstack:dhcp-done",
		slog.String("ip", results.AssignedAddr.String()),
		slog.String("router", results.Router.String()),
		slog.Uint64("leaseSec", uint64(results.TLease)),
	)
	return nil
}

// pump moves packets between the chip and the stack forever.
func (s *Stack) pump() {
	for {
		send, recv, _ := s.recvAndSend()
		if send == 0 && recv == 0 {
			// Nothing moved; let the bridge loop have the core.
			time.Sleep(5 * time.Millisecond)
			continue
		}
		runtime.Gosched()
	}
}

func (s *Stack) recvAndSend() (send, recv int, err error) {
	gotPacket, errRecv := s.dev.PollOne()
	if gotPacket {
		recv = 1
	}
	if errRecv != nil {
		s.log.Error("netstack:poll", slog.String("err", errRecv.Error()))
	}

	send, err = s.s.Encapsulate(s.sendbuf, -1, 0)
	if err != nil {
		s.log.Error("netstack:encapsulate", slog.Int("plen", send), slog.String("err", err.Error()))
	} else {
		err = errRecv
	}
	if send == 0 {
		return send, recv, err
	}

	err = s.dev.SendEth(s.sendbuf[:send])
	if err != nil {
		s.log.Error("netstack:send", slog.Int("plen", send), slog.String("err", err.Error()))
	}
	return send, recv, err
}

// Lneto returns the underlying lneto stack for dialing and DNS.
func (s *Stack) Lneto() *xnet.StackAsync {
	return &s.s
}

// Addr returns the current IP address.
func (s *Stack) Addr() netip.Addr {
	return s.s.Addr()
}
