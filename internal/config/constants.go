package config

import "time"

// Size label to story points mapping.
var SizePoints = map[string]int{
	"S":  1,
	"M":  3,
	"L":  5,
	"XL": 8,
}

// API client settings.
const (
	RequestTimeout = 30 * time.Second
	PageLimit      = 50
	MaxPages       = 100
)

// Database/application settings.
const (
	AppName           = "sprintdash"
	DBFileName        = "sprint-dash.db"
	DefaultDBPath     = "/data/sprint-dash.db"
	DefaultListenAddr = ":8000"
)
