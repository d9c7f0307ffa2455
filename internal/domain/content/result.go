package content

// LoadState is the state of a page fetch. Callers must handle all three.
type LoadState int

const (
	Loading LoadState = iota
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// LoadResult carries a page fetch outcome to the renderer. Page is set only
// when State is Loaded; Err only when State is Failed.
type LoadResult struct {
	State LoadState
	Page  *Page
	Err   error
}

func LoadingResult() LoadResult { return LoadResult{State: Loading} }
func LoadedResult(p *Page) LoadResult { return LoadResult{State: Loaded, Page: p} }
func FailedResult(err error) LoadResult { return LoadResult{State: Failed, Err: err} }
