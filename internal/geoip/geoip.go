package geoip

import (
	"fmt"
	"net"

	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/oschwald/geoip2-golang"
)

// Resolver преобразует IP в приблизительную геолокацию.
// Неразрешимый IP даёт nil, а не ошибку - аналитика не должна
// ломать редирект.
type Resolver interface {
	Lookup(ip string) *models.Geolocation
	Close() error
}

type maxmindResolver struct {
	reader *geoip2.Reader
}

// NewMaxMindResolver открывает базу MaxMind City (.mmdb)
func NewMaxMindResolver(path string) (Resolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &maxmindResolver{reader: reader}, nil
}

func (r *maxmindResolver) Lookup(ip string) *models.Geolocation {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil
	}

	record, err := r.reader.City(parsed)
	if err != nil {
		return nil
	}

	city := record.City.Names["en"]
	if city == "" {
		return nil
	}

	return &models.Geolocation{
		City: city,
		Lat:  record.Location.Latitude,
		Lng:  record.Location.Longitude,
	}
}

func (r *maxmindResolver) Close() error {
	return r.reader.Close()
}

type noopResolver struct{}

// NewNoopResolver используется, когда база GeoIP не сконфигурирована
func NewNoopResolver() Resolver {
	return noopResolver{}
}

func (noopResolver) Lookup(ip string) *models.Geolocation { return nil }

func (noopResolver) Close() error { return nil }
