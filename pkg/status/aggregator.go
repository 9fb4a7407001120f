package status

import (
	"context"
	"encoding/json"
	"runtime"
	"time"

	"go.uber.org/zap"

	"watson-dash/pkg/credentials"
	"watson-dash/pkg/fault"
	"watson-dash/pkg/feed"
	"watson-dash/pkg/model"
	"watson-dash/pkg/relay"
)

// DefaultPlatform is the platform name reported in the snapshot and envelopes.
const DefaultPlatform = "TRAXOVO Watson Intelligence"

// StateOperational is the platform-level status; dependency failures never change it.
const StateOperational = "OPERATIONAL"

// Relay is the part of the relay client the aggregator needs.
type Relay interface {
	BaseURL() string
	Probe(ctx context.Context) error
	Forward(ctx context.Context, env model.ActionEnvelope) (json.RawMessage, error)
}

type Options struct {
	Platform     string
	Version      string
	FeedPath     string
	AICredential string
	OptionalKeys []string
	Relay        Relay
	Lookup       credentials.LookupFunc
	Logger       *zap.Logger
	Now          func() time.Time
}

// Aggregator holds the dependency snapshot taken at construction. The
// snapshot and feed are never mutated afterwards, so handlers read them
// without locking.
type Aggregator struct {
	platform string
	version  string
	relay    Relay
	log      *zap.Logger
	now      func() time.Time

	snapshot model.Snapshot
	feed     *feed.Feed
}

// New checks every dependency once and returns the aggregator holding the result.
func New(ctx context.Context, opts Options) *Aggregator {
	a := &Aggregator{
		platform: opts.Platform,
		version:  opts.Version,
		relay:    opts.Relay,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if a.platform == "" {
		a.platform = DefaultPlatform
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	lookup := opts.Lookup
	if lookup == nil {
		lookup = credentials.Env
	}

	gauge := a.loadLocalFeed(opts.FeedPath)
	a.snapshot = model.Snapshot{
		Platform:        a.platform,
		Version:         a.version,
		Status:          StateOperational,
		Timestamp:       a.now().UTC(),
		Runtime:         runtime.Version(),
		GaugeDataLoaded: a.feed != nil && !a.feed.Empty(),
		Gauge:           gauge,
		GNIS:            a.probeRemote(ctx),
		Watson:          credentials.CheckAI(lookup, opts.AICredential),
		External:        credentials.Discover(lookup, opts.OptionalKeys),
	}
	a.log.Info("status snapshot captured",
		zap.String("gauge", a.snapshot.Gauge.Status),
		zap.Int("records", a.snapshot.Gauge.Records),
		zap.String("gnis", a.snapshot.GNIS.Status),
		zap.String("watson", a.snapshot.Watson.Status),
		zap.Int("external_keys", a.snapshot.External.Count),
	)
	return a
}

func (a *Aggregator) loadLocalFeed(path string) model.FeedStatus {
	st := model.FeedStatus{Status: model.StatusDisconnected, Path: path}
	f, err := feed.Load(path)
	if err != nil {
		st.Error = failureInfo(err)
		if kind, _ := fault.KindOf(err); kind == fault.NotFound {
			a.log.Info("gauge feed not present", zap.String("path", path))
		} else {
			a.log.Error("gauge feed unreadable", zap.String("path", path), zap.Error(err))
		}
		return st
	}
	a.feed = f
	st.Status = model.StatusConnected
	st.Records = f.Records
	a.log.Info("gauge feed loaded", zap.String("path", path), zap.Int("records", f.Records), zap.Bool("sequence", f.IsSequence()))
	return st
}

func (a *Aggregator) probeRemote(ctx context.Context) model.RelayStatus {
	if a.relay == nil {
		return model.RelayStatus{
			Status:   model.StatusOffline,
			Fallback: model.FallbackLocalMode,
			Error:    failureInfo(fault.New(fault.Unreachable, "relay probe", relay.ErrNotConfigured)),
		}
	}
	st := model.RelayStatus{URL: a.relay.BaseURL()}
	err := a.relay.Probe(ctx)
	if err == nil {
		st.Status = model.StatusConnected
		return st
	}
	st.Error = failureInfo(err)
	var fe *fault.Error
	if asFault(err, &fe) && fe.Kind == fault.RemoteError {
		st.Status = model.StatusError
		st.Code = fe.Code
	} else {
		st.Status = model.StatusOffline
		st.Fallback = model.FallbackLocalMode
	}
	a.log.Warn("relay probe failed", zap.String("url", st.URL), zap.String("status", st.Status), zap.Error(err))
	return st
}

// Snapshot returns a copy of the startup snapshot.
func (a *Aggregator) Snapshot() model.Snapshot {
	s := a.snapshot
	s.External.Keys = make([]string, len(a.snapshot.External.Keys))
	copy(s.External.Keys, a.snapshot.External.Keys)
	return s
}

// GaugeData returns the raw feed document and its record count. With no feed
// loaded it returns an empty JSON object and zero.
func (a *Aggregator) GaugeData() (json.RawMessage, int) {
	if a.feed == nil {
		return json.RawMessage("{}"), 0
	}
	return a.feed.Data, a.feed.Records
}

func failureInfo(err error) *model.FailureInfo {
	if err == nil {
		return nil
	}
	kind, ok := fault.KindOf(err)
	if !ok {
		kind = fault.Unreachable
	}
	return &model.FailureInfo{Kind: string(kind), Message: err.Error()}
}
