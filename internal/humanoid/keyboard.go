package humanoid

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// keyboardNeighbors maps each key to its physical neighbors on a QWERTY
// layout, used to pick plausible mistyped characters.
var keyboardNeighbors = map[rune]string{
	'1': "2q`", '2': "13wq", '3': "24we", '4': "35er", '5': "46rt", '6': "57ty",
	'7': "68yu", '8': "79ui", '9': "80io", '0': "9-op",
	'q': "wa1s", 'w': "qase23", 'e': "wsdr34", 'r': "edft45", 't': "rfgy56",
	'y': "tghu67", 'u': "yhji78", 'i': "ujko89", 'o': "iklp90", 'p': "ol;0-",
	'a': "qwsz", 's': "awedxz", 'd': "serfcx", 'f': "drtgvc", 'g': "ftyhbv",
	'h': "gyujnb", 'j': "huikmn", 'k': "jiol,m", 'l': "kop;.",
	'z': "asx", 'x': "zsdc", 'c': "xdfv", 'v': "cfgb", 'b': "vghn", 'n': "bhjm", 'm': "njk,",
}

// commonNgrams lists letter sequences practiced typists produce faster
// than their baseline inter-key delay.
var commonNgrams = map[string]bool{
	"th": true, "he": true, "in": true, "er": true, "an": true, "re": true,
	"es": true, "on": true, "st": true, "nt": true,
	"the": true, "and": true, "ing": true, "ion": true, "tio": true,
}

// typeText drives the per-character typing loop against an already
// resolved element: sampled inter-key delay, occasional thinking pause,
// and probability-gated typo simulation. Returns the number of keys sent.
func (e *Engine) typeText(ctx context.Context, handle *ElementHandle, text string, profile TimingProfile) (int, error) {
	runes := []rune(text)
	sent := 0

	for i := 0; i < len(runes); i++ {
		if err := e.keyPause(ctx, profile, runes, i); err != nil {
			return sent, err
		}

		if e.cfg.ThinkingPauseProbability > 0 && e.sampler.Float64() < e.cfg.ThinkingPauseProbability {
			if err := e.CognitivePause(ctx, e.cfg.ThinkingPauseMean, e.cfg.ThinkingPauseStdDev); err != nil {
				return sent, err
			}
		}

		if e.cfg.TypoRate > 0 && e.sampler.Float64() < e.cfg.TypoRate {
			n, handled, advanced, err := e.introduceTypo(ctx, handle, runes, i, profile)
			sent += n
			if err != nil {
				return sent, err
			}
			if advanced {
				i++
			}
			if handled {
				continue
			}
		}

		if err := e.exec.SendKey(ctx, handle, string(runes[i])); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// keyPause sleeps the inter-key delay: a draw from the profile, compressed
// toward the minimum for practiced n-grams so common sequences come out in
// bursts. The result always stays within the profile bounds.
func (e *Engine) keyPause(ctx context.Context, profile TimingProfile, runes []rune, index int) error {
	delay := e.sampler.Sample(profile)

	factor := 1.0
	if index >= 2 && commonNgrams[strings.ToLower(string(runes[index-2:index+1]))] {
		factor = 0.55
	} else if index >= 1 && commonNgrams[strings.ToLower(string(runes[index-1:index+1]))] {
		factor = 0.7
	}
	if factor < 1.0 {
		scaled := time.Duration(float64(delay) * factor)
		if scaled < profile.MinDelay {
			scaled = profile.MinDelay
		}
		delay = scaled
	}

	return e.exec.Sleep(ctx, delay)
}

// introduceTypo picks a typo species by the configured conditional rates
// and simulates it. Returns keys sent, whether the intended character was
// consumed, and whether the following character was consumed as well
// (transpositions swallow two).
func (e *Engine) introduceTypo(ctx context.Context, handle *ElementHandle, runes []rune, i int, profile TimingProfile) (sent int, handled, advanced bool, err error) {
	char := runes[i]
	p := e.sampler.Float64()

	if p < e.cfg.TypoNeighborRate {
		sent, handled, err = e.neighborTypo(ctx, handle, char, profile)
		return sent, handled, false, err
	}
	p -= e.cfg.TypoNeighborRate

	if p < e.cfg.TypoTransposeRate {
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		return e.transpositionTypo(ctx, handle, char, next, profile)
	}
	p -= e.cfg.TypoTransposeRate

	if p < e.cfg.TypoOmissionRate {
		sent, handled, err = e.omissionTypo(ctx, handle, char, profile)
		return sent, handled, false, err
	}

	sent, handled, err = e.insertionTypo(ctx, handle, char, profile)
	return sent, handled, false, err
}

// neighborTypo hits an adjacent key, notices, backspaces, and retypes.
func (e *Engine) neighborTypo(ctx context.Context, handle *ElementHandle, char rune, profile TimingProfile) (int, bool, error) {
	neighbors, ok := keyboardNeighbors[unicode.ToLower(char)]
	if !ok || len(neighbors) == 0 {
		return 0, false, nil
	}
	wrong := rune(neighbors[e.sampler.Intn(len(neighbors))])
	if unicode.IsUpper(char) && e.sampler.Float64() < 0.8 {
		wrong = unicode.ToUpper(wrong)
	}

	sent := 0
	for _, key := range []string{string(wrong), KeyBackspace, string(char)} {
		if sent > 0 {
			if err := e.keyPause(ctx, profile, nil, 0); err != nil {
				return sent, true, err
			}
		}
		if err := e.exec.SendKey(ctx, handle, key); err != nil {
			return sent, true, err
		}
		sent++
	}
	return sent, true, nil
}

// transpositionTypo swaps two adjacent characters, then usually corrects.
func (e *Engine) transpositionTypo(ctx context.Context, handle *ElementHandle, char, next rune, profile TimingProfile) (sent int, handled, advanced bool, err error) {
	if next == 0 || unicode.IsSpace(char) || unicode.IsSpace(next) {
		return 0, false, false, nil
	}

	send := func(key string) error {
		if sent > 0 {
			if err := e.keyPause(ctx, profile, nil, 0); err != nil {
				return err
			}
		}
		if err := e.exec.SendKey(ctx, handle, key); err != nil {
			return err
		}
		sent++
		return nil
	}

	// Wrong order first.
	if err = send(string(next)); err != nil {
		return sent, false, false, err
	}
	if err = send(string(char)); err != nil {
		return sent, false, true, err
	}
	advanced = true

	if e.sampler.Float64() >= e.cfg.TypoNoticeProbability {
		// Transposition goes unnoticed.
		return sent, true, advanced, nil
	}
	for _, key := range []string{KeyBackspace, KeyBackspace, string(char), string(next)} {
		if err = send(key); err != nil {
			return sent, true, advanced, err
		}
	}
	return sent, true, advanced, nil
}

// omissionTypo skips the character, then usually notices and supplies it.
func (e *Engine) omissionTypo(ctx context.Context, handle *ElementHandle, char rune, profile TimingProfile) (int, bool, error) {
	if unicode.IsSpace(char) {
		return 0, false, nil
	}
	if e.sampler.Float64() >= e.cfg.TypoNoticeProbability {
		// Omission stays uncorrected.
		return 0, true, nil
	}
	if err := e.keyPause(ctx, profile, nil, 0); err != nil {
		return 0, true, err
	}
	if err := e.exec.SendKey(ctx, handle, string(char)); err != nil {
		return 0, true, err
	}
	return 1, true, nil
}

// insertionTypo slips in an extra neighboring key before the intended one.
func (e *Engine) insertionTypo(ctx context.Context, handle *ElementHandle, char rune, profile TimingProfile) (int, bool, error) {
	neighbors, ok := keyboardNeighbors[unicode.ToLower(char)]
	if !ok || len(neighbors) == 0 {
		return 0, false, nil
	}
	extra := rune(neighbors[e.sampler.Intn(len(neighbors))])
	noticed := e.sampler.Float64() < e.cfg.TypoNoticeProbability

	keys := []string{string(extra)}
	if noticed {
		keys = append(keys, KeyBackspace)
	}
	keys = append(keys, string(char))

	sent := 0
	for _, key := range keys {
		if sent > 0 {
			if err := e.keyPause(ctx, profile, nil, 0); err != nil {
				return sent, true, err
			}
		}
		if err := e.exec.SendKey(ctx, handle, key); err != nil {
			return sent, true, err
		}
		sent++
	}
	return sent, true, nil
}
