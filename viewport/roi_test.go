package viewport

import (
	"testing"

	"github.com/nvr-ai/go-autoframe/common"
	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		boxes []common.BoundingBox
		want  ROI
	}{
		{
			name: "no boxes",
			want: ROI{CenterX: 320, CenterY: 240},
		},
		{
			name:  "single box",
			boxes: []common.BoundingBox{{X: 10, Y: 10, Width: 20, Height: 20}},
			want:  ROI{CenterX: 20, CenterY: 20, Width: 20, Height: 20},
		},
		{
			name: "equal areas meet at the midpoint",
			boxes: []common.BoundingBox{
				{X: 0, Y: 0, Width: 20, Height: 20},
				{X: 100, Y: 60, Width: 20, Height: 20},
			},
			want: ROI{CenterX: 60, CenterY: 40, Width: 120, Height: 80},
		},
		{
			name: "larger box pulls the center",
			boxes: []common.BoundingBox{
				{X: 0, Y: 0, Width: 10, Height: 10},
				{X: 90, Y: 0, Width: 30, Height: 30},
			},
			// (5*100 + 105*900) / 1000 = 95, (5*100 + 15*900) / 1000 = 14
			want: ROI{CenterX: 95, CenterY: 14, Width: 120, Height: 30},
		},
		{
			name: "centroid truncates toward zero",
			boxes: []common.BoundingBox{
				{X: 0, Y: 0, Width: 2, Height: 2},
				{X: 0, Y: 0, Width: 4, Height: 1},
				{X: 2, Y: 2, Width: 1, Height: 1},
			},
			// x = (1*4 + 2*4 + 2*1) / 9 = 1.55, y = (1*4 + 0*4 + 2*1) / 9 = 0.66
			want: ROI{CenterX: 1, CenterY: 0, Width: 4, Height: 3},
		},
		{
			name: "zero area boxes fall back to the frame center",
			boxes: []common.BoundingBox{
				{X: 10, Y: 10, Width: 0, Height: 30},
				{X: 50, Y: 50, Width: 40, Height: 0},
			},
			want: ROI{CenterX: 320, CenterY: 240},
		},
		{
			name: "cancelling areas fall back to the largest box",
			boxes: []common.BoundingBox{
				{X: 100, Y: 100, Width: 10, Height: 10},
				{X: 0, Y: 0, Width: -10, Height: 10},
			},
			want: ROI{CenterX: 105, CenterY: 105, Width: 10, Height: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.boxes, 640, 480))
		})
	}
}
