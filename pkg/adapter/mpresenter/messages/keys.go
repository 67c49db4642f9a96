// 指示: miu200521358
// Package messages はCLI表示に使うメッセージキーを提供する。
package messages

// メッセージキー一覧。
const (
	HelpUsageTitle   = "使い方"
	HelpUsage        = "使い方説明"
	HelpRetarget     = "リターゲット説明"
	HelpLive         = "ライブ再生説明"
	HelpFlagConfig   = "設定ファイル説明"
	HelpFlagLogLevel = "ログレベル説明"
	HelpFlagLang     = "表示言語説明"

	LabelSourcePath = "元骨格"
	LabelTargetPath = "先骨格"
	LabelClipPath   = "アニメーション"
	LabelPacketPath = "受信記録"
	LabelOutputPath = "姿勢出力"

	MessageRetargetFailed   = "リターゲット失敗"
	MessageLiveFailed       = "ライブ再生失敗"
	MessageConfigFailed     = "設定読み込み失敗"
	MessageSourceRequired   = "元骨格ファイルを指定してください"
	MessageTargetRequired   = "先骨格ファイルを指定してください"
	MessageClipRequired     = "アニメーションファイルを指定してください"
	MessagePacketRequired   = "受信記録ファイルを指定してください"
	MessageLogLevelInvalid  = "ログレベルが不正です"
	MessagePoseModeInvalid  = "姿勢種別が不正です"
	MessageInputUnsupported = "入力形式が未対応です"

	LogRetargetStart    = "リターゲット開始"
	LogRetargetComplete = "リターゲット完了"
	LogRetargetSkipped  = "リターゲット省略"
	LogLiveStart        = "ライブ再生開始"
	LogLiveComplete     = "ライブ再生完了"
	LogDiagnostic       = "診断"
)
