package domain

// Batch is a group of articles enqueued and processed as one job.
type Batch []Article

// URLs returns the batch URLs in order.
func (b Batch) URLs() []string {
	urls := make([]string, 0, len(b))
	for _, a := range b {
		urls = append(urls, a.URL)
	}
	return urls
}

// Without drops articles whose URL is in existing, keeping batch order.
func (b Batch) Without(existing map[string]bool) Batch {
	out := make(Batch, 0, len(b))
	for _, a := range b {
		if existing[a.URL] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Page is one slice of a paginated article listing. The listing is keyed
// "articles" rather than "items", which is what existing clients read.
type Page struct {
	Articles   []Article `json:"articles"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

// NewPage computes TotalPages as ceil(total/limit).
func NewPage(items []Article, total, page, limit int) Page {
	if items == nil {
		items = []Article{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Page{Articles: items, Total: total, Page: page, TotalPages: totalPages}
}

// Stats summarizes the article table for operators.
type Stats struct {
	Total       int
	WithContent int
	LastMonth   int
	ByStatus    map[ProcessingStatus]int
	ByCategory  map[Category]int
	Latest      *Article
	Oldest      *Article
}
