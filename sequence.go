package playa

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// videoExtensions is the opaque-decoder set from spec §6; anything in this
// set gets the "{mask}@{seq}" path form instead of glob substitution.
var videoExtensions = map[string]bool{
	"mp4": true, "mov": true, "mkv": true, "avi": true, "webm": true,
}

// ResolvePath builds the concrete path a FileNode should load for sequence
// number seq, per spec §4.3.1 step 5:
//   - video extension => "{mask}@{seq}" (decoder selects the frame)
//   - pattern with '*' => zero-padded seq of width `padding`
//   - '%0Nd' / '####' => same, width taken from the mask itself
//   - else the mask is returned literally
func ResolvePath(mask string, seq int, padding int) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(mask), "."))
	if videoExtensions[ext] {
		return fmt.Sprintf("%s@%d", mask, seq)
	}

	if strings.Contains(mask, "*") {
		return strings.Replace(mask, "*", fmt.Sprintf("%0*d", padding, seq), 1)
	}
	if idx := strings.Index(mask, "####"); idx >= 0 {
		return mask[:idx] + fmt.Sprintf("%04d", seq) + mask[idx+4:]
	}
	if loc := printfPattern.FindStringSubmatchIndex(mask); loc != nil {
		widthStr := mask[loc[2]:loc[3]]
		width, _ := strconv.Atoi(widthStr)
		return mask[:loc[0]] + fmt.Sprintf("%0*d", width, seq) + mask[loc[1]:]
	}
	return mask
}

// printfPattern matches a "%0Nd" sequence token.
var printfPattern = regexp.MustCompile(`%0(\d+)d`)

// DetectedSequence is the result of scanning a directory for a numbered
// frame sequence (original_source sequence.rs, supplementing spec §6's
// grammar with auto-detection).
type DetectedSequence struct {
	Mask    string
	Start   int
	End     int
	Padding int
}

// seqFilePattern matches "<prefix><digits><suffix>.<ext>".
var seqFilePattern = regexp.MustCompile(`^(.*?)(\d+)(\.[A-Za-z0-9]+)$`)

// DetectSequence scans dir for files matching maskHint's prefix/suffix
// (maskHint may itself contain a '*' token, e.g. "plate_*.exr") and infers
// file_start, file_end, and padding from the files actually present.
func DetectSequence(dir, maskHint string) (DetectedSequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return DetectedSequence{}, err
	}

	prefix, suffix := splitMaskHint(maskHint)

	var seqNums []int
	padding := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		if suffix != "" && !strings.HasSuffix(name, suffix) {
			continue
		}
		m := seqFilePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		digits := m[2]
		n, convErr := strconv.Atoi(digits)
		if convErr != nil {
			continue
		}
		seqNums = append(seqNums, n)
		if len(digits) > padding {
			padding = len(digits)
		}
	}
	if len(seqNums) == 0 {
		return DetectedSequence{}, newErr(KindNoInput, "DetectSequence", fmt.Errorf("no matching files in %s", dir))
	}
	sort.Ints(seqNums)

	mask := prefix + strings.Repeat("*", 1) + suffix
	return DetectedSequence{
		Mask:    filepath.Join(dir, mask),
		Start:   seqNums[0],
		End:     seqNums[len(seqNums)-1],
		Padding: padding,
	}, nil
}

func splitMaskHint(hint string) (prefix, suffix string) {
	if i := strings.IndexByte(hint, '*'); i >= 0 {
		return filepath.Base(hint[:i]), hint[i+1:]
	}
	return "", filepath.Ext(hint)
}
