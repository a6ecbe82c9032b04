package placement

import (
	"context"
	"testing"

	"github.com/ChicagoDave/ilotplanner/pkg/geo"
)

func BenchmarkPlace(b *testing.B) {
	cfg := scenarioConfig()
	fp := roomPlan(40, 25, geo.R(15, 10, 18, 13))
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		fs, idx := setup(b, fp, cfg)
		b.StartTimer()
		if _, err := Place(context.Background(), fs, idx, cfg); err != nil {
			b.Fatal(err)
		}
	}
}
