package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"sync"
)

const (
	NoSelection = -1
	SubBreedAll = "all"
	PageTitle   = "Images DOG API"
)

var (
	ErrNoSuchBreed    = errors.New("no such breed")
	ErrNoSuchSubBreed = errors.New("no such sub-breed")
	ErrNoSubBreeds    = errors.New("selected breed has no sub-breeds")
	ErrBadCount       = errors.New("number of images must not be negative")
)

type FetchLevel int

const (
	LevelBreed FetchLevel = iota
	LevelSubBreed
)

// FetchTicket is issued by a transition that needs an image list. Its
// completion is only committed while the generations it carries are current.
type FetchTicket struct {
	Path     string
	Level    FetchLevel
	breedGen uint64
	subGen   uint64
}

type SelectionState struct {
	BreedIndex          int
	HasSubBreeds        bool
	SubBreeds           []string
	SubBreedIndex       int
	AllSubBreeds        bool
	Count               int
	AvailableImageCount int
}

func emptySelection() SelectionState {
	return SelectionState{BreedIndex: NoSelection, SubBreedIndex: NoSelection}
}

// Form owns one user's selection. All writes go through the named
// transitions below; fetch results come back through Complete.
type Form struct {
	mu      sync.Mutex
	source  ImageSource
	metrics *Metrics
	log     *log.Logger

	catalog       BreedCatalog
	catalogLoaded bool
	catalogWait   chan struct{}
	catalogErr    error

	state       SelectionState
	breedImages []string
	images      []string
	displayed   []string
	notice      Notification
	fieldErrors ValidationErrors

	breedGen uint64
	subGen   uint64
}

func NewForm(source ImageSource, metrics *Metrics) *Form {
	return &Form{
		source:  source,
		metrics: metrics,
		log:     log.New(os.Stderr, "(form) ", log.LstdFlags),
		state:   emptySelection(),
	}
}

// Load fetches the catalog unless an earlier call already got it, so a
// failed load is tried again the next time the page is shown. Callers that
// arrive while a load is running wait for it and share its outcome.
func (f *Form) Load(ctx context.Context) error {
	f.mu.Lock()
	if f.catalogLoaded {
		f.mu.Unlock()
		return nil
	}
	if wait := f.catalogWait; wait != nil {
		f.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.catalogLoaded {
			return nil
		}
		return f.catalogErr
	}
	wait := make(chan struct{})
	f.catalogWait = wait
	f.mu.Unlock()

	catalog, err := f.source.Breeds(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalogWait = nil
	defer close(wait)
	if err != nil {
		f.catalogErr = err
		f.notify(NotifyError, notificationText(err))
		return err
	}
	if f.catalogErr != nil && f.notice.Kind == NotifyError {
		f.notice.Visible = false
	}
	f.catalogErr = nil
	f.catalog = catalog
	f.catalogLoaded = true
	return nil
}

// SelectBreed picks the breed at index, or clears the breed with NoSelection.
func (f *Form) SelectBreed(index int) (*FetchTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index != NoSelection && (index < 0 || index >= len(f.catalog)) {
		return nil, ErrNoSuchBreed
	}

	f.breedGen++
	f.subGen++
	f.state = emptySelection()
	f.breedImages = nil
	f.images = nil
	delete(f.fieldErrors, FieldBreed)
	delete(f.fieldErrors, FieldSubBreed)
	if index == NoSelection {
		return nil, nil
	}

	breed := f.catalog[index]
	f.state.BreedIndex = index
	if len(breed.SubBreeds) > 0 {
		f.state.HasSubBreeds = true
		f.state.SubBreeds = breed.SubBreeds
	}
	return &FetchTicket{
		Path:     breed.Name,
		Level:    LevelBreed,
		breedGen: f.breedGen,
		subGen:   f.subGen,
	}, nil
}

// SelectSubBreed takes a sub-breed index, SubBreedAll, or "" to unset. Only a
// concrete sub-breed needs a fetch; the others fall back to the breed's list.
func (f *Form) SelectSubBreed(value string) (*FetchTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.state.HasSubBreeds {
		return nil, ErrNoSubBreeds
	}

	index := NoSelection
	if value != "" && value != SubBreedAll {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n >= len(f.state.SubBreeds) {
			return nil, ErrNoSuchSubBreed
		}
		index = n
	}

	f.subGen++
	f.state.Count = 0
	f.state.SubBreedIndex = index
	f.state.AllSubBreeds = value == SubBreedAll
	if value != "" {
		delete(f.fieldErrors, FieldSubBreed)
	}
	if index == NoSelection {
		f.setImages(f.breedImages)
		return nil, nil
	}

	f.setImages(nil)
	return &FetchTicket{
		Path:     f.catalog[f.state.BreedIndex].Name + "/" + f.state.SubBreeds[index],
		Level:    LevelSubBreed,
		breedGen: f.breedGen,
		subGen:   f.subGen,
	}, nil
}

func (f *Form) SelectCount(n int) error {
	if n < 0 {
		return ErrBadCount
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Count = n
	if n > 0 {
		delete(f.fieldErrors, FieldNumberImage)
	}
	return nil
}

// Fetch runs the request a ticket describes and commits the result. It
// reports whether the result was still current.
func (f *Form) Fetch(ctx context.Context, t *FetchTicket) (bool, error) {
	if t == nil {
		return false, nil
	}
	urls, err := f.source.Images(ctx, t.Path)
	return f.Complete(*t, urls, err), err
}

func (f *Form) Complete(t FetchTicket, urls []string, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.breedGen != f.breedGen || (t.Level == LevelSubBreed && t.subGen != f.subGen) {
		f.log.Println("Discarding stale result for", t.Path)
		f.metrics.StaleDiscarded()
		return false
	}
	if err != nil {
		// a sub-breed list on screen doesn't depend on the breed list
		if t.Level == LevelSubBreed || f.state.SubBreedIndex == NoSelection {
			f.notify(NotifyError, notificationText(err))
		}
		return true
	}
	if t.Level == LevelBreed {
		f.breedImages = urls
		if f.state.SubBreedIndex == NoSelection {
			f.setImages(urls)
		}
		return true
	}
	f.setImages(urls)
	return true
}

func (f *Form) Submit() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if errs := validateSelection(f.state); errs != nil {
		f.fieldErrors = errs
		f.metrics.Submission(false)
		return nil, errs
	}
	f.fieldErrors = nil
	f.displayed = TakeImages(f.images, f.state.Count)
	f.notify(NotifySuccess, string(NotifySuccess))
	f.metrics.Submission(true)
	return append([]string(nil), f.displayed...), nil
}

func (f *Form) Dismiss() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notice.Visible = false
}

func (f *Form) Catalog() BreedCatalog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.catalog
}

func (f *Form) State() SelectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) Notification() Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notice
}

func (f *Form) setImages(urls []string) {
	f.images = urls
	f.state.AvailableImageCount = len(urls)
}

func (f *Form) notify(kind NotificationKind, text string) {
	f.notice = Notification{Visible: true, Text: text, Kind: kind}
}
