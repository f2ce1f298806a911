package matcher

import (
	"log/slog"
	"path/filepath"
	"strings"

	"reelpipe/internal/logging"
	"reelpipe/internal/textutil"
)

// Class identifies an asset kind by file extension.
type Class int

const (
	ClassUnknown Class = iota
	ClassMetadata
	ClassVideo
	ClassThumbnail
)

// Classes lists the asset classes in matching order.
var Classes = []Class{ClassMetadata, ClassVideo, ClassThumbnail}

func (c Class) String() string {
	switch c {
	case ClassMetadata:
		return "json"
	case ClassVideo:
		return "video"
	case ClassThumbnail:
		return "thumbnail"
	default:
		return "unknown"
	}
}

// Label is the short name used in "error - faltan" statuses.
func (c Class) Label() string {
	switch c {
	case ClassMetadata:
		return "JSON"
	case ClassVideo:
		return "MP4"
	case ClassThumbnail:
		return "IMG"
	default:
		return ""
	}
}

// ClassOf returns the asset class for a file name.
func ClassOf(name string) Class {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return ClassMetadata
	case ".mp4":
		return ClassVideo
	case ".jpg", ".jpeg", ".png":
		return ClassThumbnail
	default:
		return ClassUnknown
	}
}

// Strategy names one matching tier.
type Strategy string

const (
	// StrategyExactPrefix requires the first three filename-mode tokens of
	// title and stem to be equal.
	StrategyExactPrefix Strategy = "exact_prefix"
	// StrategyContainment accepts when one fused string contains the other,
	// or, failing that for every candidate, when a title token longer than
	// three runes appears in the fused stem.
	StrategyContainment Strategy = "containment"
	// StrategyPrefix compares the first ten runes of the fused strings.
	StrategyPrefix Strategy = "prefix"
	// StrategySimilarity accepts a position match ratio of at least 0.8.
	StrategySimilarity Strategy = "similarity"
	// StrategyPhrase accepts stems containing the three-word title phrase or
	// one of its words longer than three runes.
	StrategyPhrase Strategy = "phrase"
	// StrategySingleton adopts the only candidate of a class.
	StrategySingleton Strategy = "singleton"
)

const (
	exactPrefixWords    = 3
	prefixRunes         = 10
	similarityMinRunes  = 8
	similarityThreshold = 0.8
	longTokenMinRunes   = 3
)

var (
	// DefaultStrategies runs every tier in order.
	DefaultStrategies = []Strategy{StrategyExactPrefix, StrategyContainment, StrategyPrefix, StrategySimilarity, StrategySingleton}
	// PromotionStrategies is used when moving fresh downloads into the
	// publish-ready area.
	PromotionStrategies = []Strategy{StrategyContainment, StrategyPrefix, StrategySimilarity, StrategySingleton}
	// FuzzyStrategies is used to find one file without the singleton escape.
	FuzzyStrategies = []Strategy{StrategyContainment, StrategyPrefix, StrategySimilarity}
)

// Result holds the selected file per class. Empty strings mean no match.
type Result struct {
	JSON       string
	Video      string
	Thumbnail  string
	Strategies map[Class]Strategy
}

// Get returns the file selected for class.
func (r Result) Get(class Class) string {
	switch class {
	case ClassMetadata:
		return r.JSON
	case ClassVideo:
		return r.Video
	case ClassThumbnail:
		return r.Thumbnail
	default:
		return ""
	}
}

func (r *Result) set(class Class, file string, strategy Strategy) {
	switch class {
	case ClassMetadata:
		r.JSON = file
	case ClassVideo:
		r.Video = file
	case ClassThumbnail:
		r.Thumbnail = file
	default:
		return
	}
	if r.Strategies == nil {
		r.Strategies = make(map[Class]Strategy, len(Classes))
	}
	r.Strategies[class] = strategy
}

// Complete reports whether every class matched.
func (r Result) Complete() bool {
	return r.JSON != "" && r.Video != "" && r.Thumbnail != ""
}

// Missing returns the classes without a match, in matching order.
func (r Result) Missing() []Class {
	var missing []Class
	for _, class := range Classes {
		if r.Get(class) == "" {
			missing = append(missing, class)
		}
	}
	return missing
}

// Files returns the matched files in matching order.
func (r Result) Files() []string {
	files := make([]string, 0, len(Classes))
	for _, class := range Classes {
		if file := r.Get(class); file != "" {
			files = append(files, file)
		}
	}
	return files
}

// Options configures Match.
type Options struct {
	// Strategies are evaluated in order; nil means DefaultStrategies.
	Strategies []Strategy
	Logger     *slog.Logger
}

// Match selects at most one candidate per class for title. Candidates may be
// bare names or paths; comparisons use the base name without its extension
// and the returned values are the candidates as given.
func Match(title string, candidates []string, opts Options) Result {
	strategies := opts.Strategies
	if strategies == nil {
		strategies = DefaultStrategies
	}
	key := newTitleKey(title)
	pools := splitByClass(candidates)

	var result Result
	for _, class := range Classes {
		pool := pools[class]
		if len(pool) == 0 {
			continue
		}
		for _, strategy := range strategies {
			file, ok := key.pick(strategy, pool)
			if !ok {
				continue
			}
			result.set(class, file.path, strategy)
			if strategy == StrategySingleton {
				logging.WarnWithContext(opts.Logger, "singleton fallback adopted unmatched asset", "singleton_fallback",
					logging.String("title", title),
					logging.String("asset_class", class.String()),
					logging.String("file", file.path),
					logging.String(logging.FieldErrorHint, "verify the asset belongs to this title"),
					logging.String(logging.FieldImpact, "asset paired by class alone"),
				)
			}
			break
		}
	}
	return result
}

// Lookup finds the files for one item in the publish-ready area. The exact
// three-word prefix is tried first; when neither the metadata nor the video
// matched, the phrase fallback fills whatever classes are still empty.
func Lookup(title string, candidates []string, logger *slog.Logger) Result {
	result := Match(title, candidates, Options{Strategies: []Strategy{StrategyExactPrefix}, Logger: logger})
	if result.JSON != "" || result.Video != "" {
		return result
	}
	fallback := Match(title, candidates, Options{Strategies: []Strategy{StrategyPhrase}, Logger: logger})
	for _, class := range Classes {
		if result.Get(class) == "" && fallback.Get(class) != "" {
			result.set(class, fallback.Get(class), StrategyPhrase)
		}
	}
	if len(result.Strategies) > 0 && logger != nil {
		logger.Debug("phrase fallback used for asset lookup",
			logging.String("title", title),
			logging.Int("matched", len(result.Files())),
		)
	}
	return result
}

type candidate struct {
	path  string
	stem  string
	fused string
	words []string
}

func splitByClass(candidates []string) map[Class][]candidate {
	pools := make(map[Class][]candidate, len(Classes))
	for _, path := range candidates {
		class := ClassOf(path)
		if class == ClassUnknown {
			continue
		}
		base := filepath.Base(path)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		pools[class] = append(pools[class], candidate{
			path:  path,
			stem:  stem,
			fused: textutil.Fuse(stem),
			words: textutil.Normalize(stem, textutil.ModeFilename, exactPrefixWords),
		})
	}
	return pools
}

type titleKey struct {
	fused      string
	words      []string
	phrase     string
	longTokens []string
}

func newTitleKey(title string) titleKey {
	words := textutil.Normalize(title, textutil.ModeFilename, exactPrefixWords)
	key := titleKey{
		fused:  textutil.Fuse(title),
		words:  words,
		phrase: strings.Join(words, " "),
	}
	for _, token := range textutil.LongTokens(title, longTokenMinRunes) {
		if fused := textutil.Fuse(token); fused != "" {
			key.longTokens = append(key.longTokens, fused)
		}
	}
	return key
}

func (k titleKey) pick(strategy Strategy, pool []candidate) (candidate, bool) {
	switch strategy {
	case StrategyExactPrefix:
		return first(pool, k.exactPrefix)
	case StrategyContainment:
		if c, ok := first(pool, k.contains); ok {
			return c, true
		}
		return first(pool, k.containsToken)
	case StrategyPrefix:
		return first(pool, k.prefix)
	case StrategySimilarity:
		return first(pool, k.similar)
	case StrategyPhrase:
		return first(pool, k.phraseMatch)
	case StrategySingleton:
		if len(pool) == 1 {
			return pool[0], true
		}
	}
	return candidate{}, false
}

func first(pool []candidate, accept func(candidate) bool) (candidate, bool) {
	for _, c := range pool {
		if accept(c) {
			return c, true
		}
	}
	return candidate{}, false
}

func (k titleKey) exactPrefix(c candidate) bool {
	if len(k.words) < exactPrefixWords || len(c.words) < exactPrefixWords {
		return false
	}
	for i := range exactPrefixWords {
		if k.words[i] != c.words[i] {
			return false
		}
	}
	return true
}

func (k titleKey) contains(c candidate) bool {
	if k.fused == "" || c.fused == "" {
		return false
	}
	shorter, longer := k.fused, c.fused
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return strings.Contains(longer, shorter)
}

func (k titleKey) containsToken(c candidate) bool {
	if c.fused == "" {
		return false
	}
	for _, token := range k.longTokens {
		if strings.Contains(c.fused, token) {
			return true
		}
	}
	return false
}

func (k titleKey) prefix(c candidate) bool {
	if len([]rune(k.fused)) < prefixRunes || len([]rune(c.fused)) < prefixRunes {
		return false
	}
	return textutil.RunePrefix(k.fused, prefixRunes) == textutil.RunePrefix(c.fused, prefixRunes)
}

func (k titleKey) similar(c candidate) bool {
	if len([]rune(k.fused)) < similarityMinRunes || len([]rune(c.fused)) < similarityMinRunes {
		return false
	}
	return textutil.PositionMatchRatio(k.fused, c.fused) >= similarityThreshold
}

func (k titleKey) phraseMatch(c candidate) bool {
	stem := textutil.NormalizeStem(c.stem, textutil.ModeFilename, 0)
	if stem == "" {
		return false
	}
	if k.phrase != "" && strings.Contains(stem, k.phrase) {
		return true
	}
	for _, word := range k.words {
		if len([]rune(word)) > longTokenMinRunes && strings.Contains(stem, word) {
			return true
		}
	}
	return false
}
