package models

import (
	"time"
)

// Geolocation приблизительное местоположение по IP.
// Неразрешимый IP даёт nil-геолокацию, а не ошибку.
type Geolocation struct {
	City string  `json:"city"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Click хранимое событие клика. Append-only: после записи
// никогда не изменяется и не удаляется.
type Click struct {
	ID        int64        `json:"id"`
	LinkID    string       `json:"link_id"`
	OwnerID   string       `json:"owner_id"`
	IPAddress string       `json:"ip_address"`
	UserAgent string       `json:"user_agent"`
	Referer   string       `json:"referer"`
	Location  *Geolocation `json:"location,omitempty"`
	Device    string       `json:"device"`
	Browser   string       `json:"browser"`
	OS        string       `json:"os"`
	Network   string       `json:"network"`
	ClickedAt time.Time    `json:"clicked_at"`
}

// ClickEvent сырое событие из редиректа, до обогащения
// геолокацией и разбора User-Agent
type ClickEvent struct {
	LinkID    string
	OwnerID   string
	IPAddress string
	UserAgent string
	Referer   string
}

// DailyVisits клики за один календарный день
type DailyVisits struct {
	Date  time.Time `json:"date"`
	Count int64     `json:"count"`
}

// LocationVisits клики, сгруппированные по городу
type LocationVisits struct {
	City  string  `json:"city"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Count int64   `json:"count"`
}

// VisitorsByDate временной ряд для графика на дашборде
type VisitorsByDate struct {
	Labels []string `json:"labels"`
	Data   []int64  `json:"data"`
}

// DeviceInfo разбивка кликов по устройствам/браузерам/сетям
type DeviceInfo struct {
	Devices  map[string]int64 `json:"devices"`
	Browsers map[string]int64 `json:"browsers"`
	Networks map[string]int64 `json:"networks"`
}

// AnalyticsSummary агрегированная аналитика по всем ссылкам пользователя
type AnalyticsSummary struct {
	VisitorsByDate     VisitorsByDate   `json:"visitorsByDate"`
	VisitorsByLocation []LocationVisits `json:"visitorsByLocation"`
	DeviceInfo         DeviceInfo       `json:"deviceInfo"`
}
