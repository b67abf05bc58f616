package jobs

import (
	"strings"

	"intern-match/internal/storage"
)

// unknownCity is the display name of the catch-all group for postings whose
// location cannot be attributed to a city.
const unknownCity = "Unknown"

// NormalizeCity lowercases and trims a city string for use as a grouping and
// lookup key. The result is never displayed. Empty input normalizes to the
// empty string, which is itself a valid group key.
func NormalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// rawCity derives the city text for a posting: the extracted city when
// present, otherwise the first comma-delimited segment of the location,
// otherwise "Unknown".
func rawCity(job storage.JobPosting) string {
	if city := strings.TrimSpace(job.City); city != "" {
		return city
	}
	if loc := strings.TrimSpace(job.Location); loc != "" {
		first, _, _ := strings.Cut(loc, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return unknownCity
}

// GroupByCity buckets postings by normalized city. The display name of each
// group is the first-seen casing of its city text. Two postings whose city
// text differs only in case or surrounding whitespace land in the same group,
// and flattening all groups recovers exactly the input postings.
func GroupByCity(postings []storage.JobPosting) []storage.CityJobCollection {
	var groups []storage.CityJobCollection
	index := make(map[string]int)

	for _, job := range postings {
		city := rawCity(job)
		key := NormalizeCity(city)

		if job.Skills == nil {
			job.Skills = []string{}
		}

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, storage.CityJobCollection{
				City:           city,
				NormalizedCity: key,
			})
		}
		groups[i].Jobs = append(groups[i].Jobs, job)
	}

	return groups
}
