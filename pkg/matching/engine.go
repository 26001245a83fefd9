// Package matching implements listing match signals and cluster resolution
package matching

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/normalizers"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// Signal names recorded on match edges.
const (
	SignalSharedDomain  = "shared-domain"
	SignalSharedContact = "shared-contact"
	SignalGeoName       = "geo-name"
)

// Engine proposes match edges between listings and resolves them into
// duplicate clusters.
type Engine struct {
	logger ectologger.Logger
	scorer *Scorer
	config EngineConfig
}

// EngineConfig contains configuration for the match engine
type EngineConfig struct {
	GeoProximityMeters float64 // Max distance for the geo+name signal (default: 500)
	NameDistanceMax    int     // Max edit distance between normalized names (default: 3, exclusive)
	MinPhoneDigits     int     // Minimum digits for a phone to count as a contact signal (default: 8)
	RequireTwoSignals  bool    // Demand two independent signals per edge
}

// DefaultConfig returns default engine configuration
func DefaultConfig() EngineConfig {
	return EngineConfig{
		GeoProximityMeters: 500,
		NameDistanceMax:    3,
		MinPhoneDigits:     8,
		RequireTwoSignals:  false,
	}
}

// NewEngine creates a new match engine
func NewEngine(logger ectologger.Logger, config EngineConfig) *Engine {
	return &Engine{
		logger: logger,
		scorer: NewScorer(),
		config: config,
	}
}

// Edge is a proposed match between two listings, by index into the input
// slice, with the signals that fired for the pair.
type Edge struct {
	A       int
	B       int
	Signals []string
}

// signature holds the precomputed normalized match keys for one listing.
type signature struct {
	domain string
	email  string
	phone  string
	name   string
	lat    float64
	lon    float64
	hasGeo bool
}

func (e *Engine) signatureOf(l *models.Listing) signature {
	sig := signature{name: normalizers.NormalizeName(l.Title)}

	// Only the venue's own website counts. The scrape source URL shares its
	// domain with every other listing from the same marketplace.
	if l.Website != nil {
		sig.domain = normalizers.RootDomain(*l.Website)
	}

	if l.ContactEmail != nil {
		sig.email = normalizers.NormalizeEmail(*l.ContactEmail)
	}
	if l.ContactPhone != nil {
		phone := normalizers.NormalizePhone(*l.ContactPhone)
		if len(phone) >= e.config.MinPhoneDigits {
			sig.phone = phone
		}
	}

	if l.HasCoordinates() {
		sig.lat = *l.Latitude
		sig.lon = *l.Longitude
		sig.hasGeo = true
	}

	return sig
}

// Match proposes edges between all pairs of listings. The input order is
// preserved in edge indexes, so the result is deterministic for a given
// snapshot.
func (e *Engine) Match(ctx context.Context, listings []models.Listing) []Edge {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.Match")
	defer span.End()

	sigs := make([]signature, len(listings))
	for i := range listings {
		sigs[i] = e.signatureOf(&listings[i])
	}

	var edges []Edge
	for i := 0; i < len(listings); i++ {
		for j := i + 1; j < len(listings); j++ {
			signals := e.pairSignals(&sigs[i], &sigs[j])
			if len(signals) == 0 {
				continue
			}
			if e.config.RequireTwoSignals && len(signals) < 2 {
				continue
			}
			edges = append(edges, Edge{A: i, B: j, Signals: signals})
		}
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"listings": len(listings),
		"edges":    len(edges),
	}).Debug("Match pass completed")

	return edges
}

// pairSignals evaluates the three match signals for one pair. Missing fields
// never fire a signal; they simply disable it for the pair.
func (e *Engine) pairSignals(a, b *signature) []string {
	var signals []string

	if a.domain != "" && a.domain == b.domain {
		signals = append(signals, SignalSharedDomain)
	}

	if (a.email != "" && a.email == b.email) || (a.phone != "" && a.phone == b.phone) {
		signals = append(signals, SignalSharedContact)
	}

	if a.hasGeo && b.hasGeo && a.name != "" && b.name != "" {
		dist := e.scorer.HaversineMeters(a.lat, a.lon, b.lat, b.lon)
		if dist < e.config.GeoProximityMeters &&
			e.scorer.LevenshteinDistance(a.name, b.name) < e.config.NameDistanceMax {
			signals = append(signals, SignalGeoName)
		}
	}

	return signals
}

// Resolve runs a match pass and folds the edges into duplicate clusters via
// union-find. Each cluster is a slice of indexes into the input; singletons
// are included.
func (e *Engine) Resolve(ctx context.Context, listings []models.Listing) ([][]int, []Edge) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.Resolve")
	defer span.End()

	edges := e.Match(ctx, listings)

	uf := NewUnionFind(len(listings))
	for _, edge := range edges {
		uf.Union(edge.A, edge.B)
	}

	clusters := uf.Clusters()

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"listings": len(listings),
		"clusters": len(clusters),
	}).Info("Resolved duplicate clusters")

	return clusters, edges
}
