package tetris

import (
	"errors"
	"fmt"
)

// ErrUnknownAction はクライアントから未定義のアクションが送られた場合のエラーです。
var ErrUnknownAction = errors.New("unknown action")

// InputEvent はプレイヤーの離散的な操作です。1ティックの間に複数届くことがあり、すべて順番に処理されます。
type InputEvent int

const (
	MoveLeft InputEvent = iota
	MoveRight
	RotateClockwise
	RotateCounterClockwise
	HardDrop
	SoftDropOn
	SoftDropOff
)

var inputEventNames = map[InputEvent]string{
	MoveLeft:               "move_left",
	MoveRight:              "move_right",
	RotateClockwise:        "rotate_right",
	RotateCounterClockwise: "rotate_left",
	HardDrop:               "hard_drop",
	SoftDropOn:             "soft_drop_on",
	SoftDropOff:            "soft_drop_off",
}

func (e InputEvent) String() string {
	if name, ok := inputEventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("InputEvent(%d)", int(e))
}

// ParseInputEvent はWebSocketで受け取ったアクション名をInputEventに変換します。
// "rotate" は "rotate_right" の別名として扱います。
func ParseInputEvent(action string) (InputEvent, error) {
	if action == "rotate" {
		return RotateClockwise, nil
	}
	for e, name := range inputEventNames {
		if name == action {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

func (e InputEvent) MarshalText() ([]byte, error) {
	name, ok := inputEventNames[e]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, int(e))
	}
	return []byte(name), nil
}

func (e *InputEvent) UnmarshalText(text []byte) error {
	parsed, err := ParseInputEvent(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// PlayerInputEvent はクライアントからの操作入力を表す構造体です。
// WebSocketを通じてサーバーに送信されます。
type PlayerInputEvent struct {
	UserID string `json:"user_id"` // 操作を行ったプレイヤーのID（サーバー側で上書き）
	Action string `json:"action"`  // "move_left", "rotate_right", "hard_drop", "soft_drop_on" など
}
