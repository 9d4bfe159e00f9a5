// Package services provides the collaborators the composition engine depends on: tracking, styles, archive storage and text generation
package services

import (
	"context"
	"encoding/binary"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/repository"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// sectionSlug turns a module name into a lowercase dash separated token for utm_content
func sectionSlug(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}

// UTMTrackingBuilder appends utm parameters to outbound links. Nothing is stored.
type UTMTrackingBuilder struct {
	Source string
	Medium string
}

func NewUTMTrackingBuilder(source, medium string) *UTMTrackingBuilder {
	if source == "" {
		source = "newsletter"
	}
	if medium == "" {
		medium = "email"
	}
	return &UTMTrackingBuilder{Source: source, Medium: medium}
}

// Wrap sets utm_source, utm_medium, utm_campaign (issue date) and utm_content (section).
// Parameters already on the link are kept.
func (b *UTMTrackingBuilder) Wrap(_ context.Context, rawURL, sectionName string, issueDate time.Time, _ uuid.UUID) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid outbound url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("outbound url %q is not absolute", rawURL)
	}

	q := u.Query()
	setIfMissing := func(key, value string) {
		if value != "" && q.Get(key) == "" {
			q.Set(key, value)
		}
	}
	setIfMissing("utm_source", b.Source)
	setIfMissing("utm_medium", b.Medium)
	if !issueDate.IsZero() {
		setIfMissing("utm_campaign", utils.FormatDate(issueDate))
	}
	setIfMissing("utm_content", sectionSlug(sectionName))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ShortLinkTrackingBuilder stores every outbound link as a short link and returns {domain}/s/{uid}.
// One link is stored per issue, section and long link. Visits are counted by the short link redirect.
type ShortLinkTrackingBuilder struct {
	repo   repository.ShortLinkRepository
	domain string
	utm    *UTMTrackingBuilder
	newUID func() string
}

// NewShortLinkTrackingBuilder creates the builder; a non-nil utm builder tags the long link first
func NewShortLinkTrackingBuilder(repo repository.ShortLinkRepository, domain string, utm *UTMTrackingBuilder) *ShortLinkTrackingBuilder {
	return &ShortLinkTrackingBuilder{
		repo:   repo,
		domain: strings.TrimRight(domain, "/"),
		utm:    utm,
		newUID: randomUID,
	}
}

// randomUID encodes the first 8 bytes of a random uuid in base36
func randomUID() string {
	id := uuid.New()
	uid := strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36)
	if len(uid) > utils.ShortLinkUIDLength {
		uid = uid[:utils.ShortLinkUIDLength]
	}
	return uid
}

func (b *ShortLinkTrackingBuilder) Wrap(ctx context.Context, rawURL, sectionName string, issueDate time.Time, issueID uuid.UUID) (string, error) {
	if b.domain == "" {
		return "", fmt.Errorf("short link domain is not configured")
	}
	longLink := rawURL
	if b.utm != nil {
		tagged, err := b.utm.Wrap(ctx, rawURL, sectionName, issueDate, issueID)
		if err != nil {
			return "", err
		}
		longLink = tagged
	}

	// live renders of the same issue reuse the link stored by the first render
	if issueID != uuid.Nil {
		existing, err := b.repo.ByFilter(ctx, models.ShortLinkFilter{
			IssueID:  &issueID,
			Section:  &sectionName,
			LongLink: &longLink,
		}, "id ASC", 1, 0)
		if err != nil {
			return "", fmt.Errorf("failed to look up short link: %w", err)
		}
		if len(existing) > 0 {
			return existing[0].ShortLink, nil
		}
	}

	uid := b.newUID()
	shortURL := fmt.Sprintf("%s/s/%s", b.domain, uid)
	row := &models.ShortLink{
		UID:       uid,
		Section:   sectionName,
		LongLink:  longLink,
		ShortLink: shortURL,
	}
	if issueID != uuid.Nil {
		row.IssueID = &issueID
	}
	if !issueDate.IsZero() {
		row.IssueDate = utils.DateOnlyPtr(issueDate)
	}
	if err := b.repo.Save(ctx, row); err != nil {
		return "", fmt.Errorf("failed to store short link: %w", err)
	}
	return shortURL, nil
}
