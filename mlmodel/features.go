package mlmodel

import "math"

// Front-end parameters the sound model was trained with.
const (
	SampleRate = 16000
	ClipLength = 2 * SampleRate
	FFTSize    = 1024
	HopSize    = 512
	NumMels    = 64
	TopDB      = 80.0
)

// NumFrames is the frame count of a centered STFT over one clip.
const NumFrames = 1 + ClipLength/HopSize

// fft performs an in-place radix-2 Cooley-Tukey FFT.
// re and im must have the same power-of-2 length.
func fft(re, im []float64) {
	n := len(re)
	if n <= 1 {
		return
	}

	j := 0
	for i := 0; i < n-1; i++ {
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
		k := n >> 1
		for k <= j {
			j -= k
			k >>= 1
		}
		j += k
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		angle := -2.0 * math.Pi / float64(size)
		wR, wI := math.Cos(angle), math.Sin(angle)
		for start := 0; start < n; start += size {
			tR, tI := 1.0, 0.0
			for k := 0; k < half; k++ {
				u := start + k
				v := u + half
				xR := tR*re[v] - tI*im[v]
				xI := tR*im[v] + tI*re[v]
				re[v] = re[u] - xR
				im[v] = im[u] - xI
				re[u] += xR
				im[u] += xI
				tR, tI = tR*wR-tI*wI, tR*wI+tI*wR
			}
		}
	}
}

// hannWindow is the periodic Hann window used for spectral analysis.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp      = 200.0 / 3
	melMinLogHz = 1000.0
	melMinLog   = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

func hzToMel(hz float64) float64 {
	if hz < melMinLogHz {
		return hz / melFSp
	}
	return melMinLog + math.Log(hz/melMinLogHz)/melLogStep
}

func melToHz(mel float64) float64 {
	if mel < melMinLog {
		return mel * melFSp
	}
	return melMinLogHz * math.Exp(melLogStep*(mel-melMinLog))
}

// melFilterBank returns [numMels][fftSize/2+1] area-normalized triangular
// filters spanning 0 Hz to Nyquist.
func melFilterBank(numMels, fftSize, sampleRate int) [][]float64 {
	half := fftSize/2 + 1
	nyquist := float64(sampleRate) / 2

	freqs := make([]float64, half)
	for k := range freqs {
		freqs[k] = nyquist * float64(k) / float64(half-1)
	}

	top := hzToMel(nyquist)
	edges := make([]float64, numMels+2)
	for i := range edges {
		edges[i] = melToHz(top * float64(i) / float64(numMels+1))
	}

	bank := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		lo, mid, hi := edges[m], edges[m+1], edges[m+2]
		norm := 2.0 / (hi - lo)
		row := make([]float64, half)
		for k, f := range freqs {
			lower := (f - lo) / (mid - lo)
			upper := (hi - f) / (hi - mid)
			if w := math.Min(lower, upper); w > 0 {
				row[k] = w * norm
			}
		}
		bank[m] = row
	}
	return bank
}

// Extractor computes standardized log-mel spectrograms. It holds only
// read-only tables and is safe for concurrent use.
type Extractor struct {
	window  []float64
	melBank [][]float64
}

func NewExtractor() *Extractor {
	return &Extractor{
		window:  hannWindow(FFTSize),
		melBank: melFilterBank(NumMels, FFTSize, SampleRate),
	}
}

// FixLength zero-pads or truncates pcm to one clip.
func FixLength(pcm []float64) []float64 {
	out := make([]float64, ClipLength)
	copy(out, pcm)
	return out
}

// LogMel returns a [NumMels][NumFrames] matrix for one clip of 16 kHz mono
// samples: power mel spectrogram, dB relative to its peak clipped at
// TopDB, then standardized to zero mean and unit variance.
func (e *Extractor) LogMel(pcm []float64) [][]float64 {
	clip := FixLength(pcm)

	// centered frames, zero padded by half a window on both sides
	pad := FFTSize / 2
	padded := make([]float64, len(clip)+2*pad)
	copy(padded[pad:], clip)

	half := FFTSize/2 + 1
	re := make([]float64, FFTSize)
	im := make([]float64, FFTSize)
	power := make([]float64, half)

	mel := make([][]float64, NumMels)
	for m := range mel {
		mel[m] = make([]float64, NumFrames)
	}

	for t := 0; t < NumFrames; t++ {
		start := t * HopSize
		for i := 0; i < FFTSize; i++ {
			re[i] = padded[start+i] * e.window[i]
			im[i] = 0
		}
		fft(re, im)
		for k := 0; k < half; k++ {
			power[k] = re[k]*re[k] + im[k]*im[k]
		}
		for m, filter := range e.melBank {
			var sum float64
			for k, w := range filter {
				if w != 0 {
					sum += w * power[k]
				}
			}
			mel[m][t] = sum
		}
	}

	toDB(mel)
	standardize(mel)
	return mel
}

func toDB(s [][]float64) {
	const amin = 1e-10
	peak := amin
	for _, row := range s {
		for _, v := range row {
			if v > peak {
				peak = v
			}
		}
	}
	ref := 10 * math.Log10(peak)
	maxDB := math.Inf(-1)
	for _, row := range s {
		for i, v := range row {
			row[i] = 10*math.Log10(math.Max(amin, v)) - ref
			if row[i] > maxDB {
				maxDB = row[i]
			}
		}
	}
	floor := maxDB - TopDB
	for _, row := range s {
		for i, v := range row {
			if v < floor {
				row[i] = floor
			}
		}
	}
}

func standardize(s [][]float64) {
	var sum, n float64
	for _, row := range s {
		for _, v := range row {
			sum += v
			n++
		}
	}
	if n == 0 {
		return
	}
	mean := sum / n
	var sq float64
	for _, row := range s {
		for _, v := range row {
			sq += (v - mean) * (v - mean)
		}
	}
	std := math.Sqrt(sq / n)
	for _, row := range s {
		for i, v := range row {
			row[i] = (v - mean) / (std + 1e-6)
		}
	}
}

// softmax returns normalized probabilities for logits.
func softmax(logits []float32) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	peak := float64(logits[0])
	for _, l := range logits {
		peak = math.Max(peak, float64(l))
	}
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(float64(l) - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func argmax(p []float64) int {
	best := 0
	for i, v := range p {
		if v > p[best] {
			best = i
		}
	}
	return best
}
