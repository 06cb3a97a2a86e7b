package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

// configDefaults is the seed set written on startup for keys that do not
// exist yet. Existing values are never overwritten by seeding.
var configDefaults = []domain.ConfigEntry{
	{Key: domain.ConfigMaintenanceMode, Value: "false", Category: "platform"},
	{Key: "registration_enabled", Value: "true", Category: "platform"},
	{Key: "helpdesk_enabled", Value: "true", Category: "platform"},
	{Key: "session_timeout_minutes", Value: "30", Category: "session"},
	{Key: "max_ticket_attachments", Value: "5", Category: "helpdesk"},
}

// ConfigService serves the two configuration tiers. The fast tier is read
// through the cache so polling clients never hit the primary store.
type ConfigService struct {
	repo  ports.ConfigRepository
	cache ports.ConfigCache
	audit ports.AuditRepository
	log   zerolog.Logger
}

func NewConfigService(repo ports.ConfigRepository, cache ports.ConfigCache, audit ports.AuditRepository, log zerolog.Logger) *ConfigService {
	return &ConfigService{repo: repo, cache: cache, audit: audit, log: log}
}

func (s *ConfigService) Public(ctx context.Context) (map[string]string, error) {
	entries, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(entries))
	for _, e := range entries {
		values[e.Key] = e.Value
	}
	return values, nil
}

func (s *ConfigService) Live(ctx context.Context) (map[string]string, error) {
	cached, err := s.cache.GetLive(ctx)
	if err == nil && len(cached) > 0 {
		return cached, nil
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("live config cache read failed, falling back to store")
	}

	values, err := s.liveFromStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetLive(ctx, values); err != nil {
		s.log.Warn().Err(err).Msg("live config cache fill failed")
	}
	return values, nil
}

func (s *ConfigService) LiveVersion(ctx context.Context) (int64, error) {
	return s.cache.Version(ctx)
}

func (s *ConfigService) Update(ctx context.Context, actor domain.AuthContext, key, value, category string) error {
	if actor.Role != domain.RoleSuperAdmin {
		return domain.ErrForbidden
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrValidation
	}

	entry := domain.ConfigEntry{
		Key:       key,
		Value:     value,
		Category:  category,
		UpdatedBy: actor.UserID,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return err
	}

	if domain.IsLiveKey(key) {
		// Refresh the hot tier and advance the version marker so polling
		// clients pick the change up on their next fast cycle.
		values, err := s.liveFromStore(ctx)
		if err == nil {
			if err := s.cache.SetLive(ctx, values); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("live config cache refresh failed")
			}
		}
		if _, err := s.cache.BumpVersion(ctx); err != nil {
			s.log.Warn().Err(err).Msg("config version bump failed")
		}
	}

	s.recordAudit(ctx, actor, key, value)
	return nil
}

func (s *ConfigService) Seed(ctx context.Context) error {
	for _, def := range configDefaults {
		if _, err := s.repo.Get(ctx, def.Key); err == nil {
			continue
		}
		def.UpdatedAt = time.Now().UTC()
		if err := s.repo.Upsert(ctx, def); err != nil {
			return err
		}
		s.log.Info().Str("key", def.Key).Str("value", def.Value).Msg("seeded config default")
	}
	return nil
}

func (s *ConfigService) liveFromStore(ctx context.Context) (map[string]string, error) {
	values := make(map[string]string, len(domain.LiveConfigKeys))
	for _, key := range domain.LiveConfigKeys {
		entry, err := s.repo.Get(ctx, key)
		if err != nil {
			continue
		}
		values[key] = entry.Value
	}
	return values, nil
}

func (s *ConfigService) recordAudit(ctx context.Context, actor domain.AuthContext, key, value string) {
	entry := &domain.AuditEntry{
		ActorID:    actor.UserID,
		Action:     "config_updated",
		EntityKind: "config",
		EntityID:   key,
		Detail:     value,
		OrgID:      actor.OrgID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("audit write failed")
	}
}
