package geo

import (
	"math"
	"testing"
)

func TestRandomSkewStaysWithinBounds(t *testing.T) {
	skewer := NewGridSkewer()
	privacy := PrivacyConfig{Mode: ModeRandom, MinDistance: 200, MaxDistance: 1000}

	lat, lon := 48.8566, 2.3522

	for i := 0; i < 200; i++ {
		slat, slon, err := skewer.Skew(lat, lon, LocalityHints{}, privacy)
		if err != nil {
			t.Fatal(err)
		}
		d := Distance(lat, lon, slat, slon, Kilometers) * 1000
		// Allow for the flat-earth approximation used by offset.
		if d < 190 || d > 1010 {
			t.Fatalf("skewed point is %.1fm away, want [200, 1000]", d)
		}
	}
}

func TestGridSkewIsStable(t *testing.T) {
	skewer := NewGridSkewer()
	privacy := PrivacyConfig{Mode: ModeGrid, MinDistance: 0, MaxDistance: 1000}

	lat1, lon1, err := skewer.Skew(51.50070, -0.12460, LocalityHints{}, privacy)
	if err != nil {
		t.Fatal(err)
	}
	lat2, lon2, err := skewer.Skew(51.50071, -0.12461, LocalityHints{}, privacy)
	if err != nil {
		t.Fatal(err)
	}

	if lat1 != lat2 || lon1 != lon2 {
		t.Fatalf("nearby points should snap to the same cell: %v,%v vs %v,%v", lat1, lon1, lat2, lon2)
	}
	if lat1 == 51.50070 && lon1 == -0.12460 {
		t.Fatalf("grid snapping should move the point")
	}
}

func TestSkewRejectsBadInput(t *testing.T) {
	skewer := NewGridSkewer()

	if _, _, err := skewer.Skew(0, 0, LocalityHints{}, PrivacyConfig{Mode: "none", MaxDistance: 1}); err == nil {
		t.Fatalf("unknown mode should fail")
	}
	if _, _, err := skewer.Skew(0, 0, LocalityHints{}, PrivacyConfig{Mode: ModeRandom, MinDistance: 5, MaxDistance: 1}); err == nil {
		t.Fatalf("min > max should fail")
	}
	if _, _, err := skewer.Skew(91, 0, LocalityHints{}, DefaultPrivacyConfig()); err == nil {
		t.Fatalf("latitude out of range should fail")
	}
}

func TestDistance(t *testing.T) {
	// Paris to London is about 344km.
	km := Distance(48.8566, 2.3522, 51.5074, -0.1278, Kilometers)
	if math.Abs(km-344) > 5 {
		t.Fatalf("Paris-London should be ~344km, got %.1f", km)
	}

	mi := Distance(48.8566, 2.3522, 51.5074, -0.1278, Miles)
	if math.Abs(mi-km/kmPerMile) > 1e-9 {
		t.Fatalf("miles conversion is wrong: %v", mi)
	}

	if Distance(10, 10, 10, 10, Kilometers) != 0 {
		t.Fatalf("distance to self should be 0")
	}
}
