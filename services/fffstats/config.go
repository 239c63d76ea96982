package fffstats

import (
	"time"

	"fffscraper/lib/scrapers/fff"
)

// OutputConfig describes one scrape target: the column definition file
// (ordered "key:label" lines) and the csv files rows are written to.
type OutputConfig struct {
	ColumnsFile string   `json:"columns_file"`
	ResultFiles []string `json:"result_files"`
}

type Config struct {
	BaseUrl  string `json:"base_url"`
	Season   string `json:"season"`
	Email    string `json:"email"`
	Password string `json:"password"`

	// where the session token is cached between runs
	SessionFile string `json:"session_file"`

	Players OutputConfig `json:"players"`
	Teams   OutputConfig `json:"teams"`

	TimeoutSeconds int     `json:"timeout_seconds"`
	Retries        int     `json:"retries"`
	DelaySeconds   float64 `json:"delay_seconds"`
}

func (c Config) clientOptions() fff.ClientOptions {
	return fff.ClientOptions{
		BaseUrl: c.BaseUrl,
		Season:  c.Season,
		Timeout: time.Duration(c.TimeoutSeconds) * time.Second,
		Retries: c.Retries,
		Delay:   time.Duration(c.DelaySeconds * float64(time.Second)),
	}
}
