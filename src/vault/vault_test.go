package vault

import (
	"context"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/micromesh/micromesh/src/common"
	"github.com/micromesh/micromesh/src/mesh"
)

func testNetwork() *NetworkConfiguration {
	return &NetworkConfiguration{
		IVIndex:        5,
		UnicastAddress: 0x00AA,
		NetworkKeys: []NetworkKeyDetails{
			{Handle: 1, Index: 0, NID: 0x42},
		},
		AppKeys: []AppKeyDetails{
			{Index: 0, AID: 0x15, BoundNetKey: 0},
		},
		Publications: []Publication{
			{
				ElementAddress:  0x00AA,
				ModelIdentifier: mesh.SIGModel(0x1000),
				AppKeyIndex:     0,
				PublishAddress:  0xC001,
				PublishTTL:      7,
			},
		},
	}
}

func TestInitializeFresh(t *testing.T) {
	logger := common.NewTestLogger(t, logrus.DebugLevel)
	cm := NewConfigurationManager(NewInmemStore(), logger)

	if err := cm.Initialize(rand.Reader); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if cm.IsProvisioned() {
		t.Error("fresh device should not be provisioned")
	}
	if cm.UUID().String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("fresh device should have a UUID")
	}
	if cm.DeviceKey() == nil {
		t.Error("fresh device should have a device key")
	}
}

func TestIdentitySurvivesReload(t *testing.T) {
	logger := common.NewTestLogger(t, logrus.DebugLevel)
	store := NewInmemStore()

	cm := NewConfigurationManager(store, logger)
	if err := cm.Initialize(rand.Reader); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	firstUUID := cm.UUID()

	// A second manager on the same store simulates a restart.
	cm2 := NewConfigurationManager(store, logger)
	if err := cm2.Initialize(rand.Reader); err != nil {
		t.Fatalf("Initialize after restart: %v", err)
	}

	if cm2.UUID() != firstUUID {
		t.Errorf("UUID changed across restart: %s != %s", cm2.UUID(), firstUUID)
	}
}

func TestSetNetworkMarksProvisioned(t *testing.T) {
	logger := common.NewTestLogger(t, logrus.DebugLevel)
	store := NewInmemStore()
	cm := NewConfigurationManager(store, logger)

	if err := cm.Initialize(rand.Reader); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if err := cm.SetNetwork(testNetwork()); err != nil {
		t.Fatalf("SetNetwork: %v", err)
	}

	if !cm.IsProvisioned() {
		t.Fatal("device should be provisioned after SetNetwork")
	}

	addr, ok := cm.UnicastAddress()
	if !ok || addr != 0x00AA {
		t.Errorf("unicast address: got %v (%v), want 0x00AA", addr, ok)
	}

	// Provisioned state must survive a reload.
	cm2 := NewConfigurationManager(store, logger)
	if err := cm2.Initialize(rand.Reader); err != nil {
		t.Fatalf("Initialize after restart: %v", err)
	}
	if !cm2.IsProvisioned() {
		t.Error("provisioned state lost across restart")
	}
}

func TestNodeResetKeepsIdentity(t *testing.T) {
	logger := common.NewTestLogger(t, logrus.DebugLevel)
	cm := NewConfigurationManager(NewInmemStore(), logger)

	if err := cm.Initialize(rand.Reader); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	uuidBefore := cm.UUID()

	if err := cm.SetNetwork(testNetwork()); err != nil {
		t.Fatalf("SetNetwork: %v", err)
	}

	if err := cm.NodeReset(context.Background()); err != nil {
		t.Fatalf("NodeReset: %v", err)
	}

	if cm.IsProvisioned() {
		t.Error("device should be unprovisioned after NodeReset")
	}
	if cm.UUID() != uuidBefore {
		t.Error("NodeReset must not change the device UUID")
	}
}

// saveFailStore starts failing its saves on demand.
type saveFailStore struct {
	*InmemStore
	failSaves bool
}

func (s *saveFailStore) Save(conf *Configuration) error {
	if s.failSaves {
		return StoreErr{Op: "save", Err: errors.New("flash write failed")}
	}
	return s.InmemStore.Save(conf)
}

func TestNodeResetKeepsCacheOnSaveFailure(t *testing.T) {
	logger := common.NewTestLogger(t, logrus.DebugLevel)
	store := &saveFailStore{InmemStore: NewInmemStore()}
	cm := NewConfigurationManager(store, logger)

	if err := cm.Initialize(rand.Reader); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := cm.SetNetwork(testNetwork()); err != nil {
		t.Fatalf("SetNetwork: %v", err)
	}

	store.failSaves = true

	if err := cm.NodeReset(context.Background()); err == nil {
		t.Fatal("NodeReset should surface the save failure")
	}

	// The cached view must still match what the store holds.
	if !cm.IsProvisioned() {
		t.Error("failed NodeReset must not clear the cached network")
	}
	if addr, ok := cm.UnicastAddress(); !ok || addr != 0x00AA {
		t.Errorf("unicast address after failed reset: got %v (%v)", addr, ok)
	}
}

func TestConfigurationLookups(t *testing.T) {
	network := testNetwork()

	pub := network.FindPublication(0x00AA, mesh.SIGModel(0x1000))
	if pub == nil {
		t.Fatal("expected a publication for (0x00AA, sig:0x1000)")
	}
	if pub.PublishAddress != 0xC001 || pub.PublishTTL != 7 {
		t.Errorf("publication fields: %+v", pub)
	}

	if network.FindPublication(0x00AB, mesh.SIGModel(0x1000)) != nil {
		t.Error("unexpected publication for unknown element")
	}

	app := network.FindAppKeyByIndex(pub.AppKeyIndex)
	if app == nil || app.AID != 0x15 {
		t.Errorf("app key: %+v", app)
	}

	netKey := network.FindNetworkKeyByIndex(app.BoundNetKey)
	if netKey == nil || netKey.NID != 0x42 {
		t.Errorf("network key: %+v", netKey)
	}
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	defer store.Close()

	if _, err := store.Load(); err != ErrNoConfiguration {
		t.Fatalf("fresh store Load: got %v, want ErrNoConfiguration", err)
	}

	conf := &Configuration{
		DeviceUUID: "0cdd80a4-40f6-46a8-8de4-8f1f201f5dd7",
		Network:    testNetwork(),
	}
	if err := store.Save(conf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.DeviceUUID != conf.DeviceUUID {
		t.Errorf("DeviceUUID: got %s, want %s", loaded.DeviceUUID, conf.DeviceUUID)
	}
	if loaded.Network == nil || loaded.Network.UnicastAddress != 0x00AA {
		t.Errorf("Network: %+v", loaded.Network)
	}

	if err := store.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := store.Load(); err != ErrNoConfiguration {
		t.Fatalf("Load after Reset: got %v, want ErrNoConfiguration", err)
	}
}
