package reference

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"patchinspect/internal/models"
)

// ErrImageNotFound is returned when no image sits at the requested generation.
var ErrImageNotFound = errors.New("no image found for requested generation")

var scanTypePattern = regexp.MustCompile(`^[nN]-(\d+)$`)

// ScanOffset parses a scan type such as "n-1" into a generation offset
// (0 is the newest image, 1 the one before it, and so on).
func ScanOffset(scanType string) (int, error) {
	m := scanTypePattern.FindStringSubmatch(scanType)
	if m == nil {
		return 0, fmt.Errorf("invalid scan type %q: expected n-<generation>", scanType)
	}
	offset, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid scan type %q: %w", scanType, err)
	}
	return offset, nil
}

// SelectImage picks the image whose age in whole days sits at position
// offset of the ascending list of ages. Equal ages resolve to the first such
// image in catalog order. It reports false when offset is out of range.
func SelectImage(images []models.CandidateImage, offset int, now time.Time) (string, bool) {
	if offset < 0 || offset >= len(images) {
		return "", false
	}

	ages := make([]int, len(images))
	for i, img := range images {
		ages[i] = ageInDays(now, img.CreationDate)
	}

	sorted := make([]int, len(ages))
	copy(sorted, ages)
	sort.Ints(sorted)
	want := sorted[offset]

	for i, age := range ages {
		if age == want {
			return images[i].ImageID, true
		}
	}
	return "", false
}

// ageInDays floors the elapsed time to whole days, rounding toward the past
// for images stamped in the future.
func ageInDays(now, created time.Time) int {
	const day = 24 * time.Hour
	d := now.Sub(created)
	days := int(d / day)
	if d < 0 && d%day != 0 {
		days--
	}
	return days
}

// ImageLister lists catalog images matching a spec.
//
//go:generate mockery --name=ImageLister --output=./mocks
type ImageLister interface {
	ListImages(ctx context.Context, spec models.ImageSpec) ([]models.CandidateImage, error)
}

// Selector resolves an image spec and generation offset to an image id.
type Selector struct {
	images ImageLister
	now    func() time.Time
}

// NewSelector creates a Selector backed by the given catalog.
func NewSelector(images ImageLister) *Selector {
	return &Selector{images: images, now: time.Now}
}

// Select returns the image id at the given generation, or ErrImageNotFound.
func (s *Selector) Select(ctx context.Context, spec models.ImageSpec, offset int) (string, error) {
	images, err := s.images.ListImages(ctx, spec)
	if err != nil {
		return "", fmt.Errorf("error listing images for %s: %w", spec.NamePattern, err)
	}

	id, ok := SelectImage(images, offset, s.now())
	if !ok {
		return "", fmt.Errorf("%w: %s (generation %d of %d images)", ErrImageNotFound, spec.NamePattern, offset, len(images))
	}
	return id, nil
}
