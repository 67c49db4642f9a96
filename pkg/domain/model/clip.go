// 指示: miu200521358
package model

import "sort"

// ClipFrame は1フレーム分の元ボーンのローカル変換を表す。
type ClipFrame struct {
	Frame int
	Bones map[string]Transform
}

// Clip は元骨格のアニメーションを表す。
type Clip struct {
	Name   string
	Frames []ClipFrame
}

// Len はフレーム数を返す。
func (c *Clip) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Frames)
}

// FrameAt は並び順i番目のフレーム番号と変換群を返す。
func (c *Clip) FrameAt(i int) (int, map[string]Transform) {
	frame := c.Frames[i]
	return frame.Frame, frame.Bones
}

// SortFrames はフレーム番号順に並べ替える。
func (c *Clip) SortFrames() {
	sort.SliceStable(c.Frames, func(i, j int) bool {
		return c.Frames[i].Frame < c.Frames[j].Frame
	})
}

// FrameRange は最小と最大のフレーム番号を返す。フレームが無い場合はfalse。
func (c *Clip) FrameRange() (int, int, bool) {
	if c.Len() == 0 {
		return 0, 0, false
	}
	start, end := c.Frames[0].Frame, c.Frames[0].Frame
	for _, frame := range c.Frames[1:] {
		if frame.Frame < start {
			start = frame.Frame
		}
		if frame.Frame > end {
			end = frame.Frame
		}
	}
	return start, end, true
}

// PoseFrame は1フレーム分の先ボーン出力を表す。
type PoseFrame struct {
	Frame     int
	Bones     map[string]Transform
	Unchanged []string
	Skipped   []string
	// Objects はトラッカーで駆動するオブジェクト変換を保持する。
	Objects map[string]Transform
	// ShapeWeights はシェイプキー名から重みへの対応を保持する。
	ShapeWeights map[string]float64
}

// PoseStream は先骨格へ適用する出力フレーム列を表す。
type PoseStream struct {
	Skeleton string
	Source   string
	Scale    float64
	Frames   []PoseFrame
}
