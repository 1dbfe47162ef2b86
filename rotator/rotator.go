// Package rotator ties the relay engine to its collaborators: it loads
// the catalog, reads the client's current location, selects the next
// candidate and issues exactly one relay change.
package rotator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/yllada/mullvad-rotate/common"
	"github.com/yllada/mullvad-rotate/relay"
)

// CatalogProvider supplies the relay records.
type CatalogProvider interface {
	Records(ctx context.Context) ([]relay.Record, error)
}

// CurrentStateProvider reports where the VPN client is, or is set to be.
type CurrentStateProvider interface {
	// CurrentRelay returns the connected server, or Unknown.
	CurrentRelay(ctx context.Context) (relay.Location, error)
	// RelayConstraint returns the configured location, or Unknown.
	RelayConstraint(ctx context.Context) (relay.Location, error)
}

// ActionSink applies relay changes.
type ActionSink interface {
	SetLocation(ctx context.Context, loc relay.Location) error
	SetHostname(ctx context.Context, hostname string) error
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// Action is the relay change issued by a run.
type Action struct {
	// Entity is the candidate chosen at the rotation granularity.
	Entity relay.Location
	// Target is what was sent to the client. It is a server inside
	// Entity when attribute constraints forced a server pick.
	Target relay.Location
	// Reconnected is set when the change was bracketed by a
	// disconnect and connect.
	Reconnected bool
}

// Message describes the action for the user.
func (a Action) Message() string {
	if a.Target.Kind() == relay.LocationServer {
		return "Changing server to " + a.Target.String()
	}
	return "Changing location to " + a.Target.String()
}

// Result describes a completed run.
type Result struct {
	Action     Action
	Current    relay.Location
	Candidates *relay.CandidateSet
	Catalog    *relay.Catalog
}

// Rotator performs one rotation per Run.
type Rotator struct {
	catalog  CatalogProvider
	state    CurrentStateProvider
	sink     ActionSink
	selector *relay.Selector
}

// New creates a rotator.
func New(catalog CatalogProvider, state CurrentStateProvider, sink ActionSink, selector *relay.Selector) *Rotator {
	return &Rotator{
		catalog:  catalog,
		state:    state,
		sink:     sink,
		selector: selector,
	}
}

// LoadCatalog fetches the records and indexes them.
func (r *Rotator) LoadCatalog(ctx context.Context) (*relay.Catalog, error) {
	records, err := r.catalog.Records(ctx)
	if err != nil {
		return nil, err
	}
	cat := relay.NewCatalog(records)
	common.LogDebug("Catalog holds %d relays", cat.Len())
	return cat, nil
}

// Run loads the catalog and rotates within the constraints.
func (r *Rotator) Run(ctx context.Context, constraints *relay.ConstraintSet) (*Result, error) {
	cat, err := r.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return r.RunWith(ctx, cat, constraints)
}

// RunWith rotates within the constraints using an already loaded catalog.
func (r *Rotator) RunWith(ctx context.Context, cat *relay.Catalog, constraints *relay.ConstraintSet) (*Result, error) {
	set, err := relay.NewEngine(cat, constraints).Resolve()
	if err != nil {
		return nil, err
	}
	common.LogDebug("Rotating %s over %d candidates: %s", set.Granularity, len(set.Items), joinLocations(set.Items))

	state := &stateView{provider: r.state, catalog: cat}
	flags := constraints.Flags()

	current, err := state.entity(ctx, set.Granularity)
	if err != nil {
		return nil, err
	}

	index, err := r.selector.Select(set.Items, current, flags.Random)
	if err != nil {
		return nil, err
	}
	action := Action{Entity: set.Items[index], Target: set.Items[index]}
	common.LogInfo("Current %s is %s, next is %s", set.Granularity, current, action.Entity)

	if action.Entity.Kind() != relay.LocationServer && constraints.HasAttributeConstraints() {
		servers := set.ServersWithin(action.Entity)
		currentServer, err := state.entity(ctx, relay.LocationServer)
		if err != nil {
			return nil, err
		}
		j, err := r.selector.Select(servers, currentServer, flags.Random)
		if err != nil {
			return nil, err
		}
		action.Target = servers[j]
		common.LogInfo("Attribute constraints narrow %s to server %s", action.Entity, action.Target)
	}

	action.Reconnected = flags.PickCountry || flags.PickCity
	if err := r.apply(ctx, action); err != nil {
		return nil, err
	}

	return &Result{
		Action:     action,
		Current:    current,
		Candidates: set,
		Catalog:    cat,
	}, nil
}

// apply issues the relay change. A reconnect is attempted even when the
// change itself fails so the client is not left disconnected.
func (r *Rotator) apply(ctx context.Context, action Action) error {
	if action.Reconnected {
		if err := r.sink.Disconnect(ctx); err != nil {
			return fmt.Errorf("disconnect: %w", err)
		}
	}

	var err error
	if action.Target.Kind() == relay.LocationServer {
		err = r.sink.SetHostname(ctx, action.Target.Hostname())
	} else {
		err = r.sink.SetLocation(ctx, action.Target)
	}

	if action.Reconnected {
		if cerr := r.sink.Connect(ctx); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("connect: %w", cerr))
		}
	}
	return err
}

// stateView queries the client lazily so each value is read at most once.
type stateView struct {
	provider CurrentStateProvider
	catalog  *relay.Catalog

	connectedLoc, configuredLoc   relay.Location
	haveConnected, haveConfigured bool
}

func (s *stateView) connected(ctx context.Context) (relay.Location, error) {
	if !s.haveConnected {
		loc, err := s.provider.CurrentRelay(ctx)
		if err != nil {
			return relay.Unknown, err
		}
		s.connectedLoc, s.haveConnected = loc, true
	}
	return s.connectedLoc, nil
}

func (s *stateView) configured(ctx context.Context) (relay.Location, error) {
	if !s.haveConfigured {
		loc, err := s.provider.RelayConstraint(ctx)
		if err != nil {
			return relay.Unknown, err
		}
		s.configuredLoc, s.haveConfigured = loc, true
	}
	return s.configuredLoc, nil
}

// entity returns the current location in the shape of kind. Servers come
// from the connected relay first; countries and cities from the
// configured constraint first.
func (s *stateView) entity(ctx context.Context, kind relay.LocationKind) (relay.Location, error) {
	if kind == relay.LocationServer {
		connected, err := s.connected(ctx)
		if err != nil {
			return relay.Unknown, err
		}
		if connected.Kind() == relay.LocationServer {
			return connected, nil
		}
		configured, err := s.configured(ctx)
		if err != nil {
			return relay.Unknown, err
		}
		if configured.Kind() == relay.LocationServer {
			return configured, nil
		}
		return relay.Unknown, nil
	}

	configured, err := s.configured(ctx)
	if err != nil {
		return relay.Unknown, err
	}
	if loc := s.catalog.Project(configured, kind); !loc.IsUnknown() {
		return loc, nil
	}
	connected, err := s.connected(ctx)
	if err != nil {
		return relay.Unknown, err
	}
	return s.catalog.Project(connected, kind), nil
}

func joinLocations(locs []relay.Location) string {
	parts := make([]string, len(locs))
	for i, l := range locs {
		parts[i] = l.String()
	}
	return strings.Join(parts, ", ")
}
