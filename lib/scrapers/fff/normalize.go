package fff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

var ErrMissingRequiredField = errors.New("record is missing a required field")

// Record is one flattened output row. Values keep the types the json
// decoder produced except for the zero rule below.
type Record map[string]any

// Identity deduplicates records: (name, team abbreviation) for
// players, short name alone for teams.
type Identity struct {
	Name string
	Team string
}

// Batch accumulates normalized records across calls; a later record
// for the same identity overwrites the earlier one.
type Batch map[Identity]Record

var positionCodes = map[string]string{
	"Goalkeeper": "GK",
	"Defender":   "D",
	"Midfielder": "M",
	"Forward":    "F",
}

// FormatPosition shortens a long-form position label to the one or two
// letter code used in the output. Unrecognized labels pass through
// verbatim.
func FormatPosition(position string) string {
	code, ok := positionCodes[position]
	if ok {
		return code
	}
	return position
}

// DefaultTeamAbbreviations maps the long club names the api
// occasionally emits to the three letter codes used everywhere else.
var DefaultTeamAbbreviations = map[string]string{
	"Arsenal":        "ARS",
	"Aston Villa":    "AVL",
	"Bournemouth":    "BOU",
	"Brentford":      "BRE",
	"Brighton":       "BHA",
	"Chelsea":        "CHE",
	"Crystal Palace": "CRY",
	"Everton":        "EVE",
	"Fulham":         "FUL",
	"Ipswich":        "IPS",
	"Leicester":      "LEI",
	"Liverpool":      "LIV",
	"Man City":       "MCI",
	"Man Utd":        "MUN",
	"Newcastle":      "NEW",
	"Nott'm Forest":  "NFO",
	"Southampton":    "SOU",
	"Spurs":          "TOT",
	"West Ham":       "WHU",
	"Wolves":         "WOL",
}

// Normalizer reshapes raw api records into flat rows pruned to a
// column whitelist. It keeps a counter of records it had to skip.
type Normalizer struct {
	columns   map[string]bool
	teamAbbrs map[string]string
	skipped   int
}

// NewNormalizer takes the ordered metric whitelist (only stats whose
// key appears there survive) and an optional team name table; nil
// falls back to DefaultTeamAbbreviations.
func NewNormalizer(columns []string, teamAbbrs map[string]string) *Normalizer {
	whitelist := make(map[string]bool, len(columns))
	for _, key := range columns {
		whitelist[key] = true
	}
	if teamAbbrs == nil {
		teamAbbrs = DefaultTeamAbbreviations
	}
	return &Normalizer{columns: whitelist, teamAbbrs: teamAbbrs}
}

func (n *Normalizer) Skipped() int {
	return n.skipped
}

func (n *Normalizer) abbreviateTeam(name string) string {
	abbr, ok := n.teamAbbrs[name]
	if ok {
		return abbr
	}
	return name
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func numberOrZero(stats map[string]any, key string) float64 {
	f, ok := toFloat(stats[key])
	if !ok {
		return 0
	}
	return f
}

// formatNullValues rewrites every field whose numeric value is exactly
// zero to the empty string. The api reports both "not recorded" and
// "recorded as zero" the same way, and downstream consumers expect the
// empty marker for both. Applying it twice is a no-op.
func formatNullValues(record Record) {
	for key, value := range record {
		f, ok := toFloat(value)
		if ok && f == 0 {
			record[key] = ""
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func requireFields(subject map[string]any, fields ...string) error {
	var missing []string
	for _, field := range fields {
		_, ok := subject[field]
		if !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequiredField, strings.Join(missing, ", "))
	}
	return nil
}

func stringField(subject map[string]any, key string) string {
	s, ok := subject[key].(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", subject[key])
}

// NormalizePlayer flattens one raw player record. The gameweek and
// venue the record was fetched for become part of the row since the
// api response does not repeat them.
func (n *Normalizer) NormalizePlayer(raw RawStatRecord, gw int, venue string) (Record, Identity, error) {
	err := requireFields(raw.Player, "code", "known_name", "team_short_name", "position_name", "price")
	if err != nil {
		return nil, Identity{}, err
	}

	knownName := stringField(raw.Player, "known_name")
	abbr := n.abbreviateTeam(stringField(raw.Player, "team_short_name"))

	expGoals := numberOrZero(raw.Stats, "exp_goals")
	expAssists := numberOrZero(raw.Stats, "exp_assists")
	expGoalsTeam := numberOrZero(raw.Stats, "exp_goals_team")

	record := Record{
		"known_name":   knownName,
		"playerId":     raw.Player["code"],
		"abbr":         abbr,
		"position":     FormatPosition(stringField(raw.Player, "position_name")),
		"price":        raw.Player["price"],
		"expGA":        expGoals + expAssists,
		"gw":           gw,
		"venue":        venue,
		"game_started": numberOrZero(raw.Stats, "game_started"),
	}
	// never a divide by zero, the share is simply absent when the
	// team total is unknown
	if expGoalsTeam != 0 {
		record["exp_goals_involvement"] = round2((expGoals + expAssists) / expGoalsTeam * 100)
	}

	for key, value := range raw.Stats {
		if n.columns[key] {
			record[key] = value
		}
	}

	formatNullValues(record)
	return record, Identity{Name: knownName, Team: abbr}, nil
}

// NormalizeTeam flattens one raw team record; teams carry no derived
// expected-goals fields and are keyed by short name alone.
func (n *Normalizer) NormalizeTeam(raw RawStatRecord) (Record, Identity, error) {
	err := requireFields(raw.Team, "short_name")
	if err != nil {
		return nil, Identity{}, err
	}

	shortName := stringField(raw.Team, "short_name")

	record := Record{"short_name": shortName}
	for key, value := range raw.Stats {
		if n.columns[key] {
			record[key] = value
		}
	}

	formatNullValues(record)
	return record, Identity{Name: shortName}, nil
}

// AddPlayers normalizes a fetched batch into the accumulator map. A
// record failing normalization is skipped and counted, never fatal to
// the batch.
func (n *Normalizer) AddPlayers(ctx context.Context, batch Batch, records []RawStatRecord, gw int, venue string) {
	for _, raw := range records {
		record, identity, err := n.NormalizePlayer(raw, gw, venue)
		if err != nil {
			slog.WarnContext(ctx, "skipping player record", "err", err)
			n.skipped++
			continue
		}
		batch[identity] = record
	}
}

func (n *Normalizer) AddTeams(ctx context.Context, batch Batch, records []RawStatRecord) {
	for _, raw := range records {
		record, identity, err := n.NormalizeTeam(raw)
		if err != nil {
			slog.WarnContext(ctx, "skipping team record", "err", err)
			n.skipped++
			continue
		}
		batch[identity] = record
	}
}
