package directory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"complyform/internal/compliance"
	"complyform/internal/metrics"
	"complyform/models"
)

const keyPrefix = "complyform:directory:"

// Cache кэширует чтения справочника в Redis поверх основного хранилища.
// Ошибки Redis не ломают чтение: запрос уходит в хранилище.
type Cache struct {
	next    compliance.Directory
	client  *redis.Client
	ttl     time.Duration
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewCache(next compliance.Directory, client *redis.Client, ttl time.Duration, log zerolog.Logger, m *metrics.Metrics) *Cache {
	return &Cache{
		next:    next,
		client:  client,
		ttl:     ttl,
		log:     log.With().Str("component", "directory_cache").Logger(),
		metrics: m,
	}
}

func idKey(id int) string        { return keyPrefix + "id:" + strconv.Itoa(id) }
func nameKey(name string) string { return keyPrefix + "name:" + name }

func (c *Cache) GetDirectoryEntry(ctx context.Context, id int) (*models.DirectoryRecord, error) {
	return c.readThrough(ctx, idKey(id), func() (*models.DirectoryRecord, error) {
		return c.next.GetDirectoryEntry(ctx, id)
	})
}

func (c *Cache) GetDirectoryEntryByName(ctx context.Context, legalName string) (*models.DirectoryRecord, error) {
	return c.readThrough(ctx, nameKey(legalName), func() (*models.DirectoryRecord, error) {
		return c.next.GetDirectoryEntryByName(ctx, legalName)
	})
}

// Invalidate удаляет записи по id и по имени; вызывается после изменения справочника
func (c *Cache) Invalidate(ctx context.Context, recs ...*models.DirectoryRecord) error {
	var keys []string
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		keys = append(keys, idKey(rec.ID), nameKey(rec.LegalName))
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate directory cache: %w", err)
	}
	return nil
}

func (c *Cache) readThrough(ctx context.Context, key string, load func() (*models.DirectoryRecord, error)) (*models.DirectoryRecord, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		rec, decodeErr := decode(raw)
		if decodeErr == nil {
			c.metrics.IncDirectoryCache("hit")
			return rec, nil
		}
		c.log.Warn().Err(decodeErr).Str("key", key).Msg("dropping undecodable cache entry")
	case errors.Is(err, redis.Nil):
		c.metrics.IncDirectoryCache("miss")
	default:
		c.metrics.IncDirectoryCache("error")
		c.log.Warn().Err(err).Str("key", key).Msg("directory cache read failed")
	}

	rec, err := load()
	if err != nil {
		return nil, err
	}

	payload, err := encode(rec)
	if err != nil {
		c.log.Warn().Err(err).Int("directory_id", rec.ID).Msg("directory cache encode failed")
		return rec, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("directory cache write failed")
	}
	return rec, nil
}

// cachedEntry плоское представление записи для msgpack
type cachedEntry struct {
	ID                int             `msgpack:"id"`
	LegalName         string          `msgpack:"n"`
	FederalID         string          `msgpack:"f"`
	Certifications    map[string]bool `msgpack:"c"`
	JurisdictionCodes []string        `msgpack:"j"`
	NAICSCodes        []string        `msgpack:"k"`
	Capabilities      string          `msgpack:"cap"`
	ContactEmail      string          `msgpack:"e"`
	Rating            string          `msgpack:"r"`
	ProjectsCompleted int             `msgpack:"p"`
	IsVerified        bool            `msgpack:"v"`
	CreatedAt         time.Time       `msgpack:"t"`
}

func encode(rec *models.DirectoryRecord) ([]byte, error) {
	return msgpack.Marshal(cachedEntry{
		ID:                rec.ID,
		LegalName:         rec.LegalName,
		FederalID:         rec.FederalID,
		Certifications:    rec.Certifications,
		JurisdictionCodes: rec.JurisdictionCodes,
		NAICSCodes:        rec.NAICSCodes,
		Capabilities:      rec.Capabilities,
		ContactEmail:      rec.ContactEmail,
		Rating:            rec.Rating.String(),
		ProjectsCompleted: rec.ProjectsCompleted,
		IsVerified:        rec.IsVerified,
		CreatedAt:         rec.CreatedAt,
	})
}

func decode(raw []byte) (*models.DirectoryRecord, error) {
	var e cachedEntry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	rating, err := decimal.NewFromString(e.Rating)
	if err != nil {
		return nil, fmt.Errorf("decode rating: %w", err)
	}
	return &models.DirectoryRecord{
		ID:                e.ID,
		LegalName:         e.LegalName,
		FederalID:         e.FederalID,
		Certifications:    e.Certifications,
		JurisdictionCodes: e.JurisdictionCodes,
		NAICSCodes:        e.NAICSCodes,
		Capabilities:      e.Capabilities,
		ContactEmail:      e.ContactEmail,
		Rating:            rating,
		ProjectsCompleted: e.ProjectsCompleted,
		IsVerified:        e.IsVerified,
		CreatedAt:         e.CreatedAt,
	}, nil
}
