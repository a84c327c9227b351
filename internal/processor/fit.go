package processor

// Fit scales (width, height) so that it fits inside (maxWidth, maxHeight)
// while keeping the aspect ratio. The binding dimension is set exactly to its
// bound and the other one is rounded down, but never below 1. All arguments
// must be positive.
func Fit(width, height, maxWidth, maxHeight int) (int, int) {
	widthRatio := float64(maxWidth) / float64(width)
	heightRatio := float64(maxHeight) / float64(height)

	if widthRatio < heightRatio {
		return maxWidth, max(int(float64(height)*widthRatio), 1)
	}

	return max(int(float64(width)*heightRatio), 1), maxHeight
}
