package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/resultq/internal/core/domain"
)

// searchOptions builds search options from query parameters. Page defaults
// to 1 and per_page to defaultPerPage.
func searchOptions(q url.Values, defaultPerPage int) (domain.SearchOptions, error) {
	opts := domain.SearchOptions{
		MetadataQuery: q.Get("metadata_search"),
		Page:          1,
		PageSize:      defaultPerPage,
	}

	var err error
	f := &opts.Filter
	if f.StatusIDs, err = idList(q, "status_id"); err != nil {
		return opts, err
	}
	if f.TagIDs, err = idList(q, "tag_id"); err != nil {
		return opts, err
	}
	if v := q.Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return opts, fmt.Errorf("%w: user_id %q", domain.ErrInvalidInput, v)
		}
		f.UserID = &id
	}
	f.URLContains = q.Get("url_cont")
	f.TitleContains = q.Get("title_cont")
	if f.IncludeClosed, err = boolParam(q, "include_closed"); err != nil {
		return opts, err
	}

	f.Sort = domain.SortField(q.Get("sort"))
	if !f.Sort.IsValid() {
		return opts, fmt.Errorf("%w: sort %q", domain.ErrInvalidInput, f.Sort)
	}
	switch strings.ToLower(q.Get("order")) {
	case "", "asc":
	case "desc":
		f.Descending = true
	default:
		return opts, fmt.Errorf("%w: order %q", domain.ErrInvalidInput, q.Get("order"))
	}

	if opts.Page, err = intParam(q, "page", opts.Page); err != nil {
		return opts, err
	}
	if opts.PageSize, err = intParam(q, "per_page", opts.PageSize); err != nil {
		return opts, err
	}
	return opts, nil
}

// idList accepts repeated parameters and comma-separated values.
func idList(q url.Values, key string) ([]int64, error) {
	var ids []int64
	for _, raw := range q[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s %q", domain.ErrInvalidInput, key, part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func intParam(q url.Values, key string, def int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", domain.ErrInvalidInput, key, v)
	}
	return n, nil
}

func boolParam(q url.Values, key string) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s %q", domain.ErrInvalidInput, key, v)
	}
	return b, nil
}
