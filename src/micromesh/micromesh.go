package micromesh

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/micromesh/micromesh/src/config"
	"github.com/micromesh/micromesh/src/net"
	"github.com/micromesh/micromesh/src/node"
	"github.com/micromesh/micromesh/src/service"
	"github.com/micromesh/micromesh/src/vault"
)

// Micromesh is the engine that assembles a complete mesh node from a
// Config: configuration vault, radio transport, node loop and optional
// HTTP service.
type Micromesh struct {
	Config    *config.Config
	Vault     *vault.ConfigurationManager
	Transport net.Transport
	Node      *node.Node
	Service   *service.Service
}

// NewMicromesh ...
func NewMicromesh(conf *config.Config) *Micromesh {
	engine := &Micromesh{
		Config: conf,
	}

	return engine
}

func (m *Micromesh) initVault() error {
	var store vault.Store

	if !m.Config.Store {
		store = vault.NewInmemStore()

		m.Config.Logger().Debug("created new in-mem configuration store")
	} else {
		m.Config.Logger().WithField("path", m.Config.DatabaseDir).Debug("Attempting to load or create database")

		badgerStore, err := vault.NewBadgerStore(m.Config.DatabaseDir)

		if err != nil {
			return err
		}

		store = badgerStore
	}

	m.Vault = vault.NewConfigurationManager(store, m.Config.RawLogger())

	return nil
}

func (m *Micromesh) initTransport() error {
	transport, err := net.NewTCPTransport(
		m.Config.BridgeAddr,
		m.Config.TCPTimeout,
		m.Config.RawLogger(),
	)

	if err != nil {
		return err
	}

	m.Transport = transport

	return nil
}

func (m *Micromesh) initNode() error {
	if m.Config.Pipeline == nil {
		return fmt.Errorf("no pipeline in config")
	}

	if m.Config.Elements == nil {
		return fmt.Errorf("no elements handler in config")
	}

	m.Node = node.NewNode(
		m.Config.NodeConfig(),
		m.Vault,
		m.Config.Pipeline,
		m.Transport,
		m.Transport,
		m.Config.Elements,
		rand.Reader,
	)

	if err := m.Node.Init(); err != nil {
		return fmt.Errorf("failed to initialize node: %s", err)
	}

	return nil
}

func (m *Micromesh) initService() error {
	if !m.Config.NoService {
		m.Service = service.NewService(m.Config.ServiceAddr, m.Node, m.Config.Logger())
	}
	return nil
}

// Init assembles the engine components in dependency order.
func (m *Micromesh) Init() error {
	if err := m.initVault(); err != nil {
		return err
	}

	if err := m.initTransport(); err != nil {
		return err
	}

	if err := m.initNode(); err != nil {
		return err
	}

	if err := m.initService(); err != nil {
		return err
	}

	return nil
}

// Run starts the optional HTTP service and blocks in the node loop until it
// returns.
func (m *Micromesh) Run(ctx context.Context) error {
	if m.Service != nil {
		go m.Service.Serve()
	}

	defer m.close()

	return m.Node.Run(ctx)
}

func (m *Micromesh) close() {
	if m.Transport != nil {
		if err := m.Transport.Close(); err != nil {
			m.Config.Logger().WithError(err).Error("Closing transport")
		}
	}

	if m.Vault != nil {
		if err := m.Vault.Close(); err != nil {
			m.Config.Logger().WithError(err).Error("Closing vault")
		}
	}
}
