// Package mapper is the one canonical search and map flow: clean the
// release filename, look up candidates, enrich a pick and map the staging
// file to a Sonarr series or Radarr movie through the server.
package mapper

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/mediastage/stagehand/apiexternal"
	"github.com/mediastage/stagehand/logger"
	"github.com/mediastage/stagehand/parser"
)

type MediaServer interface {
	Lookup(query string, mediaType string) ([]apiexternal.Candidate, error)
	Enrich(id string) (apiexternal.Enrichment, error)
	MapStaging(fileID string, mediaType string, targetID string) (apiexternal.ActionResponse, error)
}

type SeriesLookup interface {
	LookupSeries(term string) ([]apiexternal.SonarrSeries, error)
}

type MovieLookup interface {
	LookupMovie(term string) ([]apiexternal.RadarrMovie, error)
}

// SeriesAdder is satisfied by a sonarr client that can also add new series.
type SeriesAdder interface {
	LookupSeriesByTvdb(tvdbid int) ([]apiexternal.SonarrSeries, error)
	AddSeries(series apiexternal.SonarrSeries) (apiexternal.SonarrSeries, error)
}

// MovieAdder is satisfied by a radarr client that can also add new movies.
type MovieAdder interface {
	LookupMovieByTmdb(tmdbid int) ([]apiexternal.RadarrMovie, error)
	AddMovie(movie apiexternal.RadarrMovie) (apiexternal.RadarrMovie, error)
}

type Mapper struct {
	srv    MediaServer
	sonarr SeriesLookup
	radarr MovieLookup
}

// NewMapper builds the flow. sonarr and radarr may be nil when no direct
// arr fallback is configured.
func NewMapper(srv MediaServer, sonarr SeriesLookup, radarr MovieLookup) *Mapper {
	return &Mapper{srv: srv, sonarr: sonarr, radarr: radarr}
}

// Candidates cleans the filename into a search query and returns matching
// library candidates. When the server has none the configured arr instance
// is asked directly with the same query.
func (m *Mapper) Candidates(filename string, mediaType string) (string, []apiexternal.Candidate, error) {
	query := parser.CleanTitle(filename)
	if query == "" {
		return "", nil, errors.New("required field missing: query")
	}
	cands, err := m.srv.Lookup(query, mediaType)
	if err != nil {
		logger.Log.Warning("server lookup failed, trying direct: ", err)
	}
	if len(cands) != 0 {
		return query, cands, nil
	}

	switch mediaType {
	case "series":
		if m.sonarr == nil {
			break
		}
		found, errl := m.sonarr.LookupSeries(query)
		if errl != nil {
			return query, nil, errors.Wrap(errl, "sonarr lookup failed")
		}
		for idx := range found {
			cands = append(cands, apiexternal.Candidate{
				Title:  found[idx].Title,
				Year:   found[idx].Year,
				ImdbID: found[idx].ImdbID,
				TvdbID: found[idx].TvdbID,
			})
		}
	case "movie":
		if m.radarr == nil {
			break
		}
		found, errl := m.radarr.LookupMovie(query)
		if errl != nil {
			return query, nil, errors.Wrap(errl, "radarr lookup failed")
		}
		for idx := range found {
			cands = append(cands, apiexternal.Candidate{
				Title:  found[idx].Title,
				Year:   found[idx].Year,
				ImdbID: found[idx].ImdbID,
				TmdbID: found[idx].TmdbID,
			})
		}
	}
	return query, cands, nil
}

// Describe fetches the enrichment object for one candidate id.
func (m *Mapper) Describe(id string) (apiexternal.Enrichment, error) {
	return m.srv.Enrich(id)
}

// Add puts a candidate that is not in the library yet into the configured
// arr instance, monitored, identified by its tvdb or tmdb id.
func (m *Mapper) Add(mediaType string, externalID int, rootFolder string, qualityProfile int) (string, error) {
	switch mediaType {
	case "series":
		adder, ok := m.sonarr.(SeriesAdder)
		if !ok {
			return "", errors.New("sonarr is not configured")
		}
		found, err := adder.LookupSeriesByTvdb(externalID)
		if err != nil {
			return "", errors.Wrap(err, "sonarr lookup failed")
		}
		if len(found) == 0 {
			return "", errors.Errorf("tvdb id %d not found", externalID)
		}
		series := found[0]
		series.Monitored = true
		series.QualityProfileID = qualityProfile
		series.RootFolderPath = rootFolder
		series.SeasonFolder = true
		if series.TitleSlug == "" {
			series.TitleSlug = parser.StringToSlug(series.Title)
		}
		added, erra := adder.AddSeries(series)
		if erra != nil {
			return "", errors.Wrap(erra, "sonarr add failed")
		}
		return added.Title, nil
	case "movie":
		adder, ok := m.radarr.(MovieAdder)
		if !ok {
			return "", errors.New("radarr is not configured")
		}
		found, err := adder.LookupMovieByTmdb(externalID)
		if err != nil {
			return "", errors.Wrap(err, "radarr lookup failed")
		}
		if len(found) == 0 {
			return "", errors.Errorf("tmdb id %d not found", externalID)
		}
		movie := found[0]
		movie.Monitored = true
		movie.QualityProfileID = qualityProfile
		movie.RootFolderPath = rootFolder
		if movie.TitleSlug == "" {
			movie.TitleSlug = parser.StringToSlug(movie.Title)
		}
		added, erra := adder.AddMovie(movie)
		if erra != nil {
			return "", errors.Wrap(erra, "radarr add failed")
		}
		return added.Title, nil
	}
	return "", errors.Errorf("unknown media type: %s", mediaType)
}

// Map associates the staging file with the chosen library item. The season
// and episode parsed from the filename are logged for the operator, the
// server derives them again on its side.
func (m *Mapper) Map(fileID string, filename string, mediaType string, targetID string) error {
	if season, episode, ok := parser.ParseIdentifier(filename); ok {
		logger.Log.Debug("mapping ", filename, " as S", strconv.Itoa(season), "E", strconv.Itoa(episode))
	}
	resp, err := m.srv.MapStaging(fileID, mediaType, targetID)
	if err != nil {
		return errors.Wrap(err, "map request failed")
	}
	if !resp.Ok() {
		return errors.New(resp.Text())
	}
	return nil
}
