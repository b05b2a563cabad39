package authstate

import (
	"context"

	"github.com/linkai/console/pkg/directory"
	"github.com/linkai/console/pkg/identity"
	"github.com/linkai/console/pkg/observability"
	"github.com/linkai/console/pkg/sessionstore"
)

// Resolution strategies, in fallback order. The resolver never returns an
// error to its caller: each strategy failure degrades to the next one, and
// the final stub cannot fail.
const (
	StrategyDirectory = "directory"
	StrategyMetadata  = "metadata"
	StrategyStub      = "stub"
)

// ProfileResolver builds a complete Profile for a session, trying the
// directory first, then session metadata, then a minimal stub.
type ProfileResolver struct {
	profiles  directory.ProfileStore
	companies *directory.CompanyService
	store     sessionstore.Store
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewProfileResolver wires the resolver. companies may be nil; company-name
// enrichment is then skipped.
func NewProfileResolver(
	profiles directory.ProfileStore,
	companies *directory.CompanyService,
	store sessionstore.Store,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *ProfileResolver {
	return &ProfileResolver{
		profiles:  profiles,
		companies: companies,
		store:     store,
		logger:    logger,
		metrics:   metrics,
	}
}

// Resolve produces a Profile for the session. It always returns a non-nil
// profile; the second return names the strategy that produced it.
func (r *ProfileResolver) Resolve(ctx context.Context, sess *identity.Session) (*Profile, string) {
	profile, strategy := r.resolve(ctx, sess)
	r.enrichCompanyName(ctx, profile)
	r.persist(ctx, profile)
	if r.metrics != nil {
		r.metrics.ProfileResolutionsTotal.WithLabelValues(strategy).Inc()
	}
	return profile, strategy
}

func (r *ProfileResolver) resolve(ctx context.Context, sess *identity.Session) (*Profile, string) {
	user := sess.User

	if r.profiles != nil {
		rec, err := r.profiles.Get(ctx, user.ID)
		if err != nil {
			r.logger.WithError(err).WithField("user_id", user.ID).
				Warn("directory profile lookup failed")
		} else if rec != nil {
			return fromRecord(rec, user), StrategyDirectory
		}
	}

	if name := user.Meta("full_name", "name"); name != "" || sess.CompanyID() != "" {
		return fromMetadata(sess), StrategyMetadata
	}

	return stubProfile(user), StrategyStub
}

// fromRecord maps a directory record onto the presentation shape. Empty
// directory columns fall back to session values, then to defaults.
func fromRecord(rec *directory.ProfileRecord, user identity.Identity) *Profile {
	p := &Profile{
		ID:              rec.UserID,
		Email:           rec.Email,
		Name:            rec.FullName,
		CompanyID:       rec.CompanyID,
		Role:            rec.ProfileRole,
		CompanyName:     rec.CompanyName,
		PhoneNumber:     rec.PhoneNumber,
		ProfileRoleName: rec.ProfileRoleName,
	}
	if p.Email == "" {
		p.Email = user.Email
	}
	if p.Name == "" {
		p.Name = user.Meta("full_name", "name")
	}
	applyDefaults(p, user)
	return p
}

func fromMetadata(sess *identity.Session) *Profile {
	user := sess.User
	p := &Profile{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Meta("full_name", "name"),
		CompanyID: sess.CompanyID(),
		Role:      user.Meta("role"),
	}
	applyDefaults(p, user)
	return p
}

func stubProfile(user identity.Identity) *Profile {
	p := &Profile{
		ID:    user.ID,
		Email: user.Email,
	}
	applyDefaults(p, user)
	return p
}

func applyDefaults(p *Profile, user identity.Identity) {
	if p.Name == "" {
		p.Name = user.Email
	}
	if p.Role == "" {
		p.Role = DefaultRole
	}
	if p.CompanyID == "" {
		p.CompanyID = DefaultCompanyID
	}
}

// enrichCompanyName is best effort: a missing or failing company lookup
// leaves the profile's existing company name alone.
func (r *ProfileResolver) enrichCompanyName(ctx context.Context, p *Profile) {
	if r.companies == nil || p.CompanyName != "" || p.CompanyID == DefaultCompanyID {
		return
	}
	name, err := r.companies.Name(ctx, p.CompanyID)
	if err != nil {
		r.logger.WithError(err).WithField("company_id", p.CompanyID).
			Debug("company name lookup failed")
		return
	}
	p.CompanyName = name
}

// persist mirrors the resolved profile and its company id into the session
// store. Store failures are logged; the in-memory snapshot is the source of
// truth for the current process.
func (r *ProfileResolver) persist(ctx context.Context, p *Profile) {
	if err := sessionstore.SetJSON(ctx, r.store, sessionstore.KeyUserProfile, p); err != nil {
		r.logger.WithError(err).Warn("failed to persist profile")
	}
	if p.CompanyID != "" && p.CompanyID != DefaultCompanyID {
		if err := r.store.Set(ctx, sessionstore.KeyCompanyID, p.CompanyID); err != nil {
			r.logger.WithError(err).Warn("failed to persist company id")
		}
	}
}
