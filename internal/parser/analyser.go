package parser

import (
	"strconv"

	"github.com/taoyao-code/demo-analyzer/internal/demo/gameevent"
	"github.com/taoyao-code/demo-analyzer/internal/demo/message"
	"github.com/taoyao-code/demo-analyzer/internal/demo/stringtable"
)

// Team 阵营
type Team uint8

const (
	TeamOther Team = iota
	TeamSpectator
	TeamRed
	TeamBlue
)

// NewTeam 未知编号归为 TeamOther
func NewTeam(n int64) Team {
	if n < 0 || n > int64(TeamBlue) {
		return TeamOther
	}
	return Team(n)
}

func (t Team) String() string {
	if t > TeamBlue {
		return "other"
	}
	return [...]string{"other", "spectator", "red", "blue"}[t]
}

// MarshalText 以名称输出阵营
func (t Team) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText 解析阵营名称，未知名称归为 TeamOther
func (t *Team) UnmarshalText(b []byte) error {
	*t = TeamOther
	for _, candidate := range []Team{TeamSpectator, TeamRed, TeamBlue} {
		if candidate.String() == string(b) {
			*t = candidate
		}
	}
	return nil
}

// Class 兵种，序列化为编号
type Class uint8

const (
	ClassOther Class = iota
	ClassScout
	ClassSniper
	ClassSoldier
	ClassDemoman
	ClassMedic
	ClassHeavy
	ClassPyro
	ClassSpy
	ClassEngineer
)

// NewClass 未知编号归为 ClassOther
func NewClass(n int64) Class {
	if n < 0 || n > int64(ClassEngineer) {
		return ClassOther
	}
	return Class(n)
}

func (c Class) String() string {
	if c > ClassEngineer {
		return "other"
	}
	return [...]string{"other", "scout", "sniper", "soldier", "demoman", "medic", "heavy", "pyro", "spy", "engineer"}[c]
}

// UserID 玩家编号，取事件 userid 的低 8 位
type UserID uint8

func userID(v int64) UserID { return UserID(v & 255) }

// ChatMessage 聊天记录
type ChatMessage struct {
	Kind message.ChatKind `json:"kind" yaml:"kind"`
	From string           `json:"from" yaml:"from"`
	Text string           `json:"text" yaml:"text"`
	Tick uint32           `json:"tick" yaml:"tick"`
}

// Spawn 出生记录
type Spawn struct {
	User  UserID `json:"user" yaml:"user"`
	Class Class  `json:"class" yaml:"class"`
	Team  Team   `json:"team" yaml:"team"`
	Tick  uint32 `json:"tick" yaml:"tick"`
}

// UserInfo userinfo 表中的玩家信息
type UserInfo struct {
	Name     string   `json:"name" yaml:"name"`
	UserID   UserID   `json:"userId" yaml:"userId"`
	SteamID  string   `json:"steamId" yaml:"steamId"`
	EntityID EntityID `json:"entityId" yaml:"entityId"`
}

// Death 击杀记录，Assister 为空表示无助攻
type Death struct {
	Weapon   string  `json:"weapon" yaml:"weapon"`
	Victim   UserID  `json:"victim" yaml:"victim"`
	Assister *UserID `json:"assister" yaml:"assister"`
	Killer   UserID  `json:"killer" yaml:"killer"`
	Tick     uint32  `json:"tick" yaml:"tick"`
}

// Round 回合结果
type Round struct {
	Winner  Team    `json:"winner" yaml:"winner"`
	Length  float32 `json:"length" yaml:"length"`
	EndTick uint32  `json:"endTick" yaml:"endTick"`
}

// UserState 玩家汇总：各兵种出生次数与最后所在阵营
type UserState struct {
	Classes map[Class]uint8 `json:"classes" yaml:"classes"`
	Name    string          `json:"name" yaml:"name"`
	UserID  UserID          `json:"userId" yaml:"userId"`
	SteamID string          `json:"steamId" yaml:"steamId"`
	Team    Team            `json:"team" yaml:"team"`
}

// MatchState 分析结果
type MatchState struct {
	Chat            []ChatMessage        `json:"chat" yaml:"chat"`
	Users           map[UserID]UserState `json:"users" yaml:"users"`
	Deaths          []Death              `json:"deaths" yaml:"deaths"`
	Rounds          []Round              `json:"rounds" yaml:"rounds"`
	StartTick       uint32               `json:"startTick" yaml:"startTick"`
	IntervalPerTick float32              `json:"intervalPerTick" yaml:"intervalPerTick"`
}

const (
	// 助攻者编号不小于该值表示无助攻
	noAssister = 16 * 1024
	// 超时判负不计入回合
	winReasonTimeLimit = 6
	// userinfo 附加数据中名字字段的字节数
	userInfoNameBytes = 32
	malformedName     = "Malformed Name"
)

// Analyser 从聊天、玩家表与游戏事件汇总比赛信息
type Analyser struct {
	chat      []ChatMessage
	users     map[UserID]UserInfo
	spawns    []Spawn
	deaths    []Death
	rounds    []Round
	startTick uint32
}

// NewAnalyser 创建分析器
func NewAnalyser() *Analyser {
	return &Analyser{users: make(map[UserID]UserInfo)}
}

// DoesHandle 只关心游戏事件与用户消息
func (a *Analyser) DoesHandle(t message.Type) bool {
	return t == message.TypeGameEvent || t == message.TypeUserMessage
}

// HandleMessage 处理游戏事件与聊天
func (a *Analyser) HandleMessage(msg message.Message, tick uint32) {
	if a.startTick == 0 {
		a.startTick = tick
	}
	switch m := msg.(type) {
	case *message.GameEventMessage:
		a.handleEvent(m.Event, tick)
	case *message.UserMessage:
		if m.SayText2 != nil {
			a.handleSayText2(m.SayText2, tick)
		}
	}
}

// HandleStringEntry 登记 userinfo 表中的玩家
func (a *Analyser) HandleStringEntry(table string, _ int, entry *stringtable.Entry) {
	if table != "userinfo" || entry.Text == nil || entry.Extra == nil {
		return
	}
	if entry.Extra.ByteLen > userInfoNameBytes {
		_ = a.parseUserInfo(*entry.Text, entry.Extra)
	}
}

// Output 汇总为 MatchState
func (a *Analyser) Output(state *ParserState) MatchState {
	return MatchState{
		Chat:            a.chat,
		Users:           a.userStates(),
		Deaths:          a.deaths,
		Rounds:          a.rounds,
		StartTick:       a.startTick,
		IntervalPerTick: state.Meta.IntervalPerTick,
	}
}

func (a *Analyser) handleSayText2(s *message.SayText2, tick uint32) {
	if s.Kind == message.NameChange {
		a.changeName(s.From, s.Text)
		return
	}
	a.chat = append(a.chat, ChatMessage{Kind: s.Kind, From: s.From, Text: s.Text, Tick: tick})
}

func (a *Analyser) changeName(from, to string) {
	for id, user := range a.users {
		if user.Name == from {
			user.Name = to
			a.users[id] = user
			return
		}
	}
}

func (a *Analyser) handleEvent(e *gameevent.Event, tick uint32) {
	if e == nil || e.Definition == nil {
		return
	}
	switch e.Name() {
	case "player_death":
		death := Death{
			Weapon: e.Text("weapon"),
			Victim: userID(e.Int("userid")),
			Killer: userID(e.Int("attacker")),
			Tick:   tick,
		}
		if v, ok := e.Get("assister"); ok {
			if assister, _ := v.Int(); assister >= 0 && assister < noAssister {
				id := userID(assister)
				death.Assister = &id
			}
		}
		a.deaths = append(a.deaths, death)
	case "player_spawn":
		a.spawns = append(a.spawns, Spawn{
			User:  userID(e.Int("userid")),
			Class: NewClass(e.Int("class")),
			Team:  NewTeam(e.Int("team")),
			Tick:  tick,
		})
	case "teamplay_round_win":
		if e.Int("winreason") == winReasonTimeLimit {
			return
		}
		a.rounds = append(a.rounds, Round{
			Winner:  NewTeam(e.Int("team")),
			Length:  e.Float("round_time"),
			EndTick: tick,
		})
	}
}

// parseUserInfo 附加数据：32 字节名字、u32 玩家编号、steam id
func (a *Analyser) parseUserInfo(text string, extra *stringtable.ExtraData) error {
	r := extra.Data.Reader()
	name, err := r.ReadSizedString(userInfoNameBytes)
	if err != nil {
		name = malformedName
	}
	raw, err := r.ReadUint32()
	if err != nil {
		return err
	}
	steamID, err := r.ReadString()
	if err != nil {
		return err
	}
	entity, err := strconv.ParseUint(text, 10, 32)
	if err != nil || steamID == "" {
		return nil
	}
	id := userID(int64(raw))
	a.users[id] = UserInfo{
		Name:     name,
		UserID:   id,
		SteamID:  steamID,
		EntityID: EntityID(entity),
	}
	return nil
}

func (a *Analyser) userStates() map[UserID]UserState {
	teams := make(map[UserID]Team, len(a.users))
	classes := make(map[UserID]map[Class]uint8, len(a.users))
	for _, spawn := range a.spawns {
		teams[spawn.User] = spawn.Team
		if classes[spawn.User] == nil {
			classes[spawn.User] = make(map[Class]uint8)
		}
		classes[spawn.User][spawn.Class]++
	}

	states := make(map[UserID]UserState, len(a.users))
	for id, user := range a.users {
		userClasses := classes[user.UserID]
		if userClasses == nil {
			userClasses = make(map[Class]uint8)
		}
		states[id] = UserState{
			Classes: userClasses,
			Name:    user.Name,
			UserID:  user.UserID,
			SteamID: user.SteamID,
			Team:    teams[user.UserID],
		}
	}
	return states
}
