package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
)

// ErrSegmentCountNotFound is returned when the first segment of a segmented
// stream does not announce how many segments follow.
var ErrSegmentCountNotFound = errors.New("segment count not found")

var segmentCountRe = regexp.MustCompile(`Segment-Count: (\d+)`)

// ContentLength asks the host for the size of rawURL with a HEAD request.
func (c *Client) ContentLength(ctx context.Context, rawURL string) (int64, error) {
	_, length, err := c.Head(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	if length < 0 {
		return 0, ErrUnknownLength
	}
	return length, nil
}

// SegmentedLength sums the size of a segmented stream. Segment 0 is fetched
// in full and announces the segment count; segments 1..N are sized with
// HEAD requests in order.
func (c *Client) SegmentedLength(ctx context.Context, rawURL string) (int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("parse segment url: %w", err)
	}
	query := u.Query()
	segmentURL := func(seq int) string {
		query.Set("sq", strconv.Itoa(seq))
		cp := *u
		cp.RawQuery = query.Encode()
		return cp.String()
	}

	first, err := c.Get(ctx, segmentURL(0))
	if err != nil {
		return 0, fmt.Errorf("fetch segment 0: %w", err)
	}
	total := int64(len(first))

	count := 0
	for _, m := range segmentCountRe.FindAllSubmatch(first, -1) {
		if n, err := strconv.Atoi(string(m[1])); err == nil {
			count = n
		}
	}
	if count == 0 {
		return 0, ErrSegmentCountNotFound
	}

	for seq := 1; seq <= count; seq++ {
		n, err := c.ContentLength(ctx, segmentURL(seq))
		if err != nil {
			return 0, fmt.Errorf("probe segment %d: %w", seq, err)
		}
		total += n
	}
	return total, nil
}
