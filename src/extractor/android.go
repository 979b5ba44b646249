package extractor

// NewInnerTubeAndroid presents the android client context to the player
// endpoint. Some videos only expose caption tracks to mobile clients, so this
// runs as an independent fallback behind the web variant.
func NewInnerTubeAndroid(base string) *InnerTube {
	return newInnerTube("innertube-android", base, androidClient)
}
