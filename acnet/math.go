package acnet

import "math"

const (
	halfLog2Pi  = 0.9189385332046727 // 0.5*ln(2*pi)
	halfLog2PiE = 1.4189385332046727 // 0.5*ln(2*pi*e)
)

// GaussianLogProb is the CPU twin of the in-graph log density: the log
// probability of action under a diagonal gaussian N(mean, std^2), summed
// over dimensions.
func GaussianLogProb(action, mean, std []float32) float64 {
	lp := -float64(len(action)) * halfLog2Pi
	for i := range action {
		z := float64(action[i]-mean[i]) / float64(std[i])
		lp += -0.5*z*z - math.Log(float64(std[i]))
	}
	return lp
}

// GaussianEntropy is the entropy of a diagonal gaussian with the given
// deviations, summed over dimensions.
func GaussianEntropy(std []float32) float64 {
	h := float64(len(std)) * halfLog2PiE
	for i := range std {
		h += math.Log(float64(std[i]))
	}
	return h
}

// SampleGaussian fills dst with a draw from N(mean, std^2). norm supplies
// standard normal variates, one per dimension.
func SampleGaussian(dst, mean, std []float32, norm func() float32) {
	for i := range dst {
		dst[i] = mean[i] + std[i]*norm()
	}
}
