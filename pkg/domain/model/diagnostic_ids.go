// 指示: miu200521358
package model

const (
	// DiagnosticBoneSkipped はフレーム内で現在姿勢が欠落しボーンを飛ばした診断。
	DiagnosticBoneSkipped = "DiagnosticBoneSkipped"
	// DiagnosticNotTStance はTスタンスでない骨格で自動スケールを算出した診断。
	DiagnosticNotTStance = "DiagnosticNotTStance"
	// DiagnosticAmbiguousName は名前一致候補が複数ありマッチングを見送った診断。
	DiagnosticAmbiguousName = "DiagnosticAmbiguousName"
	// DiagnosticScaleOverridden は明示スケールで自動スケールを上書きした診断。
	DiagnosticScaleOverridden = "DiagnosticScaleOverridden"
	// DiagnosticEmptyCorrespondence は対応が1件も無い診断。
	DiagnosticEmptyCorrespondence = "DiagnosticEmptyCorrespondence"
	// DiagnosticUnknownSensor は未登録センサーの受信を無視した診断。
	DiagnosticUnknownSensor = "DiagnosticUnknownSensor"
	// DiagnosticUnknownActor は未登録アクターの受信を無視した診断。
	DiagnosticUnknownActor = "DiagnosticUnknownActor"
	// DiagnosticFaceWeightClamped はフェイスシェイプ重みを0-1へ丸めた診断。
	DiagnosticFaceWeightClamped = "DiagnosticFaceWeightClamped"
)

// Diagnostic は処理中に検出した警告を表す。
type Diagnostic struct {
	ID      string
	Subject string
	Frame   int
}
