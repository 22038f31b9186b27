package core

// Subject 是推荐批次的目标：个人或小组，二者必须恰好指定其一。
// 这是整个引擎最基础的不变量，所有入口都先经过 Validate。
type Subject struct {
	PersonID string
	GroupID  string
}

// PersonSubject 构造一个面向个人的 Subject。
func PersonSubject(personID string) Subject {
	return Subject{PersonID: personID}
}

// GroupSubject 构造一个面向小组的 Subject。
func GroupSubject(groupID string) Subject {
	return Subject{GroupID: groupID}
}

// Validate 校验"恰好其一"不变量，违反时返回 INVALID_TARGET。
func (s Subject) Validate() error {
	if s.PersonID == "" && s.GroupID == "" {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidTarget, "subject: neither person nor group specified")
	}
	if s.PersonID != "" && s.GroupID != "" {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidTarget, "subject: both person and group specified")
	}
	return nil
}

func (s Subject) IsPerson() bool { return s.PersonID != "" && s.GroupID == "" }
func (s Subject) IsGroup() bool  { return s.GroupID != "" && s.PersonID == "" }

// ID 返回目标的标识（个人或小组其一）。
func (s Subject) ID() string {
	if s.PersonID != "" {
		return s.PersonID
	}
	return s.GroupID
}

// Key 返回稳定的存储/加锁 key，例如 "person:42" / "group:7"。
// 同一 Subject 的并发生成按此 key 串行化。
func (s Subject) Key() string {
	if s.PersonID != "" {
		return "person:" + s.PersonID
	}
	return "group:" + s.GroupID
}

func (s Subject) String() string { return s.Key() }
