// 指示: miu200521358
// Package mi18n は表示メッセージの多言語化を提供する。
package mi18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed i18n/*.yaml
var defaultFiles embed.FS

const messageDir = "i18n"

var (
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	lang      = language.Japanese
	mu        sync.RWMutex
)

// Initialize はメッセージファイルを読み込んで翻訳辞書を初期化する。
// filesがnilの場合は組み込みのメッセージファイルを使う。
func Initialize(files fs.FS) error {
	if files == nil {
		files = defaultFiles
	}
	entries, err := fs.ReadDir(files, messageDir)
	if err != nil {
		return fmt.Errorf("メッセージファイル一覧の取得に失敗しました: %w", err)
	}

	b := i18n.NewBundle(language.Japanese)
	b.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := b.LoadMessageFileFS(files, path.Join(messageDir, name)); err != nil {
			return fmt.Errorf("メッセージファイルの読み込みに失敗しました: %s: %w", name, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	bundle = b
	localizer = i18n.NewLocalizer(bundle, lang.String())
	return nil
}

// SetLang は表示言語を切り替える。解釈できない言語の場合はfalseを返す。
func SetLang(value string) bool {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	mu.Lock()
	defer mu.Unlock()
	lang = tag
	if bundle != nil {
		localizer = i18n.NewLocalizer(bundle, lang.String())
	}
	return true
}

// Lang は現在の表示言語を返す。
func Lang() string {
	mu.RLock()
	defer mu.RUnlock()
	return lang.String()
}

// T はメッセージIDを現在の言語へ翻訳する。未初期化や未登録の場合はIDをそのまま返す。
func T(id string, data ...map[string]any) string {
	mu.RLock()
	current := localizer
	mu.RUnlock()
	if current == nil {
		return id
	}

	config := &i18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 && data[0] != nil {
		config.TemplateData = data[0]
	}
	message, err := current.Localize(config)
	if err != nil || message == "" {
		return id
	}
	return message
}
