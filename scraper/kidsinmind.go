package scraper

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mr-7mdan/PG/guide"
	"github.com/Mr-7mdan/PG/logger"
)

// ProviderKidsInMind is the provider tag stored in records.
const ProviderKidsInMind = "KidsInMind"

const kidsInMindBaseURL = "https://kids-in-mind.com"

// Kids-in-Mind rates three core aspects 0-10 plus free-form sections; only
// these headings become review items.
var kimSections = map[string]string{
	"SEX/NUDITY":        guide.SexNudityItem,
	"VIOLENCE/GORE":     "Violence",
	"LANGUAGE":          "Language",
	"SUBSTANCE USE":     "Smoking, Alcohol & Drugs",
	"DISCUSSION TOPICS": "Discussion Topics",
	"MESSAGE":           "Message",
}

var (
	kimSearchEscaper = strings.NewReplacer(":", "%3A", " ", "+")
	kimScorePattern  = regexp.MustCompile(`\d+`)
	imdbTitlePattern = regexp.MustCompile(`imdb\.com/title/(tt\d+)`)
)

// KidsInMind scrapes kids-in-mind.com: a keyword search page linking to
// per-title review pages, each carrying an IMDB backlink used to confirm
// the match.
type KidsInMind struct {
	client  *http.Client
	baseURL string
	log     logger.Logger
}

// KidsInMindOption configures the scraper.
type KidsInMindOption func(*KidsInMind)

// WithKidsInMindBaseURL overrides the site root. For tests.
func WithKidsInMindBaseURL(u string) KidsInMindOption {
	return func(k *KidsInMind) { k.baseURL = strings.TrimRight(u, "/") }
}

// WithKidsInMindClient overrides the HTTP client.
func WithKidsInMindClient(c *http.Client) KidsInMindOption {
	return func(k *KidsInMind) { k.client = c }
}

// WithKidsInMindLogger sets the logger.
func WithKidsInMindLogger(log logger.Logger) KidsInMindOption {
	return func(k *KidsInMind) { k.log = log }
}

// NewKidsInMind builds the Kids-in-Mind scraper.
func NewKidsInMind(opts ...KidsInMindOption) *KidsInMind {
	k := &KidsInMind{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: kidsInMindBaseURL,
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.log == nil {
		k.log = logger.NewConsoleLogger(logger.LevelInfo)
	}
	return k
}

func (k *KidsInMind) Name() string { return "kidsinmind" }

// Fetch searches for the title and returns the first review page whose IMDB
// backlink matches externalID. A search with no usable result is a Failed
// record, not an error.
func (k *KidsInMind) Fetch(ctx context.Context, externalID, title string) (guide.Record, error) {
	searchURL := k.baseURL + "/search-desktop.htm?fwp_keyword=" + kimSearchEscaper.Replace(title)
	doc, err := fetchDocument(ctx, k.client, searchURL)
	if err != nil {
		return guide.Record{}, err
	}

	var links []string
	doc.Find("div.facetwp-template a").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			links = append(links, href)
		}
	})

	for _, link := range links {
		if !strings.HasPrefix(link, "http") {
			link = k.baseURL + link
		}
		rec, ok, err := k.scrapeReview(ctx, link, externalID, title)
		if err != nil {
			k.log.Debug("kidsinmind: skipping %s: %s", link, err)
			continue
		}
		if ok {
			return rec, nil
		}
	}
	return guide.Failed(externalID, title, ProviderKidsInMind), nil
}

func (k *KidsInMind) scrapeReview(ctx context.Context, url, externalID, title string) (guide.Record, bool, error) {
	doc, err := fetchDocument(ctx, k.client, url)
	if err != nil {
		return guide.Record{}, false, err
	}

	// The search is fuzzy; the IMDB backlink is what confirms that this
	// review page is actually about the requested title.
	if externalID != "" && !pageReferencesIMDB(doc, externalID) {
		return guide.Record{}, false, nil
	}

	pageTitle := title
	if t := doc.Find("div.title h1").First().Text(); t != "" {
		pageTitle = strings.TrimSpace(strings.SplitN(t, "|", 2)[0])
	}

	var items []guide.ReviewItem
	doc.Find("div.et_pb_text_inner").EachWithBreak(func(i int, block *goquery.Selection) bool {
		if i >= 7 {
			return false
		}
		if block.Find("p").Length() == 0 {
			return true
		}
		headings := block.Find("h2")
		if headings.Length() == 0 {
			headings = block.Find("span")
		}
		headings.Each(func(_ int, h *goquery.Selection) {
			text := strings.TrimSpace(strings.ReplaceAll(h.Text(), pageTitle, ""))
			name := strings.TrimSpace(stripDigits(text))
			mapped, ok := kimSections[name]
			if !ok {
				return
			}
			score := 0
			if m := kimScorePattern.FindString(text); m != "" {
				score, _ = strconv.Atoi(m)
			}
			desc := strings.TrimSpace(h.Parent().Find("p").First().Text())
			if desc == "" {
				desc = strings.TrimSpace(h.Parent().Text())
			}
			normalized := float64(score) / 2
			items = append(items, guide.ReviewItem{
				Name:        mapped,
				Score:       &normalized,
				Description: desc,
				Category:    kimCategory(score),
			})
		})
		return true
	})

	if len(items) == 0 {
		return guide.Record{}, false, nil
	}
	return guide.Record{
		ID:          externalID,
		Status:      guide.StatusSuccess,
		Title:       pageTitle,
		Provider:    ProviderKidsInMind,
		ReviewItems: items,
		ReviewLink:  url,
	}, true, nil
}

func pageReferencesIMDB(doc *goquery.Document, externalID string) bool {
	html, err := doc.Html()
	if err != nil {
		return false
	}
	for _, m := range imdbTitlePattern.FindAllStringSubmatch(html, -1) {
		if strings.EqualFold(m[1], externalID) {
			return true
		}
	}
	return false
}

// kimCategory buckets a 0-10 Kids-in-Mind score into the common category
// scale.
func kimCategory(score int) string {
	switch {
	case score <= 0:
		return "None"
	case score == 1:
		return "Clean"
	case score <= 4:
		return "Mild"
	case score <= 7:
		return "Moderate"
	default:
		return "Severe"
	}
}

func stripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, s)
}
