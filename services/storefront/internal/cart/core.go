package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	generalDomain "github.com/sakashimaa/storefront/pkg/domain"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/services/storefront/internal/auth"
	"github.com/sakashimaa/storefront/services/storefront/internal/client"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"github.com/sakashimaa/storefront/services/storefront/internal/metrics"
	"github.com/sakashimaa/storefront/services/storefront/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type FallbackPolicy string

const (
	// FallbackLocal writes a failed remote add into the local slot.
	FallbackLocal FallbackPolicy = "local"
	// FallbackDegrade keeps nothing locally and queues a reconciling fetch.
	FallbackDegrade FallbackPolicy = "degrade"
)

func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch FallbackPolicy(s) {
	case FallbackLocal, FallbackDegrade:
		return FallbackPolicy(s), nil
	case "":
		return FallbackDegrade, nil
	default:
		return "", fmt.Errorf("unknown cart fallback policy %q", s)
	}
}

type EventPublisher interface {
	PublishCartCheckedOut(ctx context.Context, event *generalDomain.CartCheckedOutEvent) error
}

type Deps struct {
	Signal  *auth.Signal
	Local   repository.LocalCartRepository
	Remote  client.RemoteCart
	Catalog client.Catalog
	Orders  client.OrderSubmitter
	Events  EventPublisher
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

type Options struct {
	SessionID     string
	SlotKey       string
	Pricing       Pricing
	Policy        FallbackPolicy
	RemoteTimeout time.Duration
	Now           func() time.Time
}

// Snapshot is the read projection handed to observers.
type Snapshot struct {
	Mode       domain.CartMode       `json:"mode"`
	Items      []domain.CartLineItem `json:"items"`
	IsSyncing  bool                  `json:"isSyncing"`
	LastError  domain.ErrorKind      `json:"lastError,omitempty"`
	TotalPrice float64               `json:"totalPrice"`
	TotalItems int                   `json:"totalItems"`
	Version    uint64                `json:"version"`
}

// Core owns the cart of one session. Mutations apply to memory synchronously
// and in call order; remote writes go through a FIFO drained by one goroutine.
type Core struct {
	mu       sync.Mutex
	state    domain.CartState
	session  domain.Session
	epoch    uint64
	version  uint64
	queue    []*remoteOp
	draining bool
	idle     chan struct{}
	closed   bool

	// Local slot writes still in flight, and the items the newest of them carries.
	pendingWrites int
	unsaved       []domain.CartLineItem

	// persistMu orders local slot writes made outside mu.
	persistMu    sync.Mutex
	savedVersion uint64

	notifyMu      sync.Mutex
	observers     map[int]func(Snapshot)
	nextObserver  int
	lastDelivered uint64

	unsubscribe func()

	local   repository.LocalCartRepository
	remote  client.RemoteCart
	catalog client.Catalog
	orders  client.OrderSubmitter
	events  EventPublisher
	metrics *metrics.Metrics
	logger  *zap.Logger
	tracer  trace.Tracer

	sessionID     string
	slotKey       string
	pricing       Pricing
	policy        FallbackPolicy
	remoteTimeout time.Duration
	now           func() time.Time
}

var validate = validator.New()

func New(ctx context.Context, deps Deps, opts Options) *Core {
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy == "" {
		opts.Policy = FallbackDegrade
	}
	if opts.Pricing == (Pricing{}) {
		opts.Pricing = DefaultPricing()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	idle := make(chan struct{})
	close(idle)

	c := &Core{
		state:         domain.CartState{Mode: domain.ModeLocal, Items: []domain.CartLineItem{}},
		idle:          idle,
		observers:     make(map[int]func(Snapshot)),
		local:         deps.Local,
		remote:        deps.Remote,
		catalog:       deps.Catalog,
		orders:        deps.Orders,
		events:        deps.Events,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		tracer:        otel.Tracer("cart_core"),
		sessionID:     opts.SessionID,
		slotKey:       opts.SlotKey,
		pricing:       opts.Pricing,
		policy:        opts.Policy,
		remoteTimeout: opts.RemoteTimeout,
		now:           opts.Now,
	}

	ctx = mylogger.WithSession(ctx, c.sessionID)

	// Holding mu across Subscribe makes an early transition wait for the initial state.
	c.mu.Lock()
	initial, unsubscribe := deps.Signal.Subscribe(c.onAuthChange)
	c.unsubscribe = unsubscribe
	c.enterSessionLocked(ctx, initial)
	c.mu.Unlock()

	return c
}

// Close detaches the core from its auth signal. Queued remote writes still run.
func (c *Core) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.unsubscribe()
}

func (c *Core) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// State returns a copy of the current cart state.
func (c *Core) State() domain.CartState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.state
	state.Items = domain.CloneItems(c.state.Items)
	state.IsSyncing = len(c.queue) > 0
	return state
}

func (c *Core) Session() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session
}

func (c *Core) TotalPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return totalPrice(c.state.Items)
}

func (c *Core) TotalItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return totalItems(c.state.Items)
}

// Subscribe registers fn for every later change. Deliveries never go back in version.
func (c *Core) Subscribe(fn func(Snapshot)) func() {
	c.notifyMu.Lock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn
	c.notifyMu.Unlock()

	return func() {
		c.notifyMu.Lock()
		delete(c.observers, id)
		c.notifyMu.Unlock()
	}
}

func (c *Core) snapshotLocked() Snapshot {
	return Snapshot{
		Mode:       c.state.Mode,
		Items:      domain.CloneItems(c.state.Items),
		IsSyncing:  len(c.queue) > 0,
		LastError:  c.state.LastError,
		TotalPrice: totalPrice(c.state.Items),
		TotalItems: totalItems(c.state.Items),
		Version:    c.version,
	}
}

// changedLocked bumps the version and returns the snapshot to publish once mu is released.
func (c *Core) changedLocked() Snapshot {
	c.version++
	return c.snapshotLocked()
}

func (c *Core) publish(snap Snapshot) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	if snap.Version <= c.lastDelivered {
		return
	}
	c.lastDelivered = snap.Version

	for _, fn := range c.observers {
		fn(snap)
	}
}

func (c *Core) onAuthChange(_, next domain.Session) {
	ctx := mylogger.WithSession(context.Background(), c.sessionID)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if c.session.SameIdentity(next) {
		c.session = next
		c.mu.Unlock()
		return
	}

	mylogger.Info(
		ctx,
		c.logger,
		"Auth state changed",
		zap.Bool("authenticated", next.IsAuthenticated),
		zap.String("user_id", next.UserID),
	)

	c.epoch++
	c.enterSessionLocked(ctx, next)
	snap := c.changedLocked()
	c.mu.Unlock()

	c.publish(snap)
}

// enterSessionLocked picks the mode for s and repopulates items. Local items are
// never merged into the remote cart.
func (c *Core) enterSessionLocked(ctx context.Context, s domain.Session) {
	c.session = s
	c.state.Mode = s.Mode()
	c.state.LastError = domain.ErrorKindNone

	if c.state.Mode == domain.ModeRemote {
		c.state.Items = []domain.CartLineItem{}
		c.enqueueLocked(ctx, &remoteOp{name: "Fetch", fetch: true})
		return
	}

	c.state.Items = c.loadLocalLocked(ctx)
}

func (c *Core) loadLocalLocked(ctx context.Context) []domain.CartLineItem {
	if c.pendingWrites > 0 {
		return domain.CloneItems(c.unsaved)
	}

	ctx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	items, err := c.local.Load(ctx, c.slotKey)
	if err != nil {
		mylogger.Error(ctx, c.logger, "Failed to load local cart", zap.String("slot", c.slotKey), zap.Error(err))
		return []domain.CartLineItem{}
	}
	return items
}

// persistLocal writes snap's items to the local slot without holding mu. The write
// outlives the caller's context, and a snapshot older than the last saved one is dropped.
func (c *Core) persistLocal(ctx context.Context, snap Snapshot) {
	c.writeSlot(ctx, snap)

	c.mu.Lock()
	c.pendingWrites--
	c.mu.Unlock()
}

func (c *Core) writeSlot(ctx context.Context, snap Snapshot) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.remoteTimeout)
	defer cancel()

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	if snap.Version <= c.savedVersion {
		return
	}

	var err error
	if len(snap.Items) == 0 {
		err = c.local.Delete(ctx, c.slotKey)
	} else {
		err = c.local.Save(ctx, c.slotKey, snap.Items)
	}
	if err != nil {
		mylogger.Error(ctx, c.logger, "Failed to persist local cart", zap.String("slot", c.slotKey), zap.Error(err))
		return
	}

	c.savedVersion = snap.Version
}

func totalPrice(items []domain.CartLineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

func totalItems(items []domain.CartLineItem) int {
	var n int
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
