package common

// RelatedURLTypeGetData marks a related URL as a retrievable data link.
const RelatedURLTypeGetData = "GET DATA"

// RelatedURL is one entry of a granule's related-URLs list
type RelatedURL struct {
	URL         string `json:"URL"`
	Type        string `json:"Type"`
	Description string `json:"Description,omitempty"`
}

// Granule is one discrete data file of a collection, as returned by the catalog
type Granule struct {
	ConceptID    string       `json:"concept_id"`
	CollectionID string       `json:"collection_concept_id"`
	Title        string       `json:"title,omitempty"`
	RelatedURLs  []RelatedURL `json:"related_urls"`
}

// DataURL returns the first related URL of type "GET DATA".
// The positional shortcut (second element of the list) is deliberately not
// used: providers reorder related URLs.
func (g Granule) DataURL() (string, bool) {
	for _, u := range g.RelatedURLs {
		if u.Type == RelatedURLTypeGetData {
			return u.URL, true
		}
	}
	return "", false
}

// CollectionMeta identifies a collection in the catalog
type CollectionMeta struct {
	ConceptID  string `json:"concept_id"`
	ShortName  string `json:"short_name"`
	Provider   string `json:"provider"`
	RevisionID int    `json:"revision_id,omitempty"`
}
