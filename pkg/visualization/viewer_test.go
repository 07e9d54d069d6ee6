package visualization

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"cloudscreen/pkg/classifier"
	"cloudscreen/pkg/flags"
	"cloudscreen/pkg/raster"
)

func testFlags() *flags.Raster {
	f := flags.NewRaster(4, 3)
	f.Set(0, 0, flags.Invalid)
	f.Set(1, 0, flags.Cloud|flags.CloudSure|flags.Water)
	f.Set(2, 0, flags.Cloud|flags.CloudAmbiguous)
	f.Set(3, 0, flags.CloudBuffer|flags.ClearWater|flags.Water)
	f.Set(0, 1, flags.ClearSnow|flags.Land)
	f.Set(1, 1, flags.ClearWater|flags.Water)
	f.Set(2, 1, flags.ClearLand|flags.Land)
	return f
}

// TestClassifyPrecedence verifies that cloud classes win over surface classes
func TestClassifyPrecedence(t *testing.T) {
	testCases := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, ColorInvalid},
		{1, 0, ColorCloudSure},
		{2, 0, ColorCloud},
		{3, 0, ColorBuffer},
		{0, 1, ColorSnow},
		{1, 1, ColorWater},
		{2, 1, ColorLand},
		{3, 2, ColorOther},
	}

	img := NewViewer(testFlags()).Quicklook()
	for _, tc := range testCases {
		if got := img.RGBAAt(tc.x, tc.y); got != tc.want {
			t.Errorf("pixel (%d,%d): expected %v, got %v", tc.x, tc.y, tc.want, got)
		}
	}
}

// TestFlagImage verifies that a single flag is rendered as a binary mask
func TestFlagImage(t *testing.T) {
	f := testFlags()
	img := NewViewer(f).FlagImage(flags.Water)

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			want := uint8(0)
			if f.Has(x, y, flags.Water) {
				want = 255
			}
			if got := img.GrayAt(x, y).Y; got != want {
				t.Errorf("pixel (%d,%d): expected %d, got %d", x, y, want, got)
			}
		}
	}
}

// TestIndicatorImage verifies the linear scaling and the handling of missing values
func TestIndicatorImage(t *testing.T) {
	r := raster.New(4, 1)
	r.Data = []float64{0, 0.5, classifier.NoData, math.NaN()}

	img, err := IndicatorImage(r, 0, 1)
	if err != nil {
		t.Fatalf("Failed to render indicator: %v", err)
	}
	if got := img.Gray16At(1, 0).Y; got != 32767 {
		t.Errorf("Expected 32767 for 0.5, got %d", got)
	}
	for x := 2; x < 4; x++ {
		if got := img.Gray16At(x, 0).Y; got != 0 {
			t.Errorf("Expected 0 for missing value at %d, got %d", x, got)
		}
	}

	if _, err := IndicatorImage(r, 1, 1); err == nil {
		t.Error("Expected error for an empty range")
	}
}

// TestSaveQuicklook verifies that the quick-look round trips through TIFF
func TestSaveQuicklook(t *testing.T) {
	f := testFlags()
	filename := filepath.Join(t.TempDir(), "out", "quicklook.tif")
	if err := NewViewer(f).SaveQuicklook(filename); err != nil {
		t.Fatalf("Failed to save quick-look: %v", err)
	}

	file, err := os.Open(filename)
	if err != nil {
		t.Fatalf("Failed to open quick-look: %v", err)
	}
	defer file.Close()

	img, err := tiff.Decode(file)
	if err != nil {
		t.Fatalf("Failed to decode quick-look: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Errorf("Expected bounds 4x3, got %v", img.Bounds())
	}
	r, g, b, _ := img.At(1, 1).RGBA()
	if uint8(r>>8) != ColorWater.R || uint8(g>>8) != ColorWater.G || uint8(b>>8) != ColorWater.B {
		t.Errorf("Expected water colour at (1,1), got %v", img.At(1, 1))
	}
}

// TestSaveFlagSequence verifies that one file per requested flag is written
func TestSaveFlagSequence(t *testing.T) {
	dir := t.TempDir()
	v := NewViewer(testFlags())

	if err := v.SaveFlagSequence(dir, []string{"CLOUD", "snow_ice"}); err != nil {
		t.Fatalf("Failed to save flags: %v", err)
	}
	for _, name := range []string{"flag_cloud.tif", "flag_snow_ice.tif"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}

	if err := v.SaveFlagSequence(dir, []string{"RAINBOW"}); err == nil {
		t.Error("Expected error for an unknown flag")
	}

	all := t.TempDir()
	if err := v.SaveFlagSequence(all, nil); err != nil {
		t.Fatalf("Failed to save all flags: %v", err)
	}
	entries, err := os.ReadDir(all)
	if err != nil {
		t.Fatalf("Failed to list output: %v", err)
	}
	if len(entries) != len(flags.Names()) {
		t.Errorf("Expected %d files, got %d", len(flags.Names()), len(entries))
	}
}
