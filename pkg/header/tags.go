package header

import "strings"

// Tag identifies a header entry.
type Tag int32

// TagType is the value kind stored under a tag.
type TagType int

const (
	TypeString TagType = iota + 1
	TypeStringArray
	TypeNumber
	TypeNumberArray
)

const (
	TagNotFound Tag = -1

	TagName              Tag = 1000
	TagVersion           Tag = 1001
	TagRelease           Tag = 1002
	TagEpoch             Tag = 1003
	TagSummary           Tag = 1004
	TagSize              Tag = 1009
	TagOS                Tag = 1021
	TagArch              Tag = 1022
	TagPreIn             Tag = 1023
	TagPostIn            Tag = 1024
	TagPreUn             Tag = 1025
	TagPostUn            Tag = 1026
	TagSourceRPM         Tag = 1044
	TagProvideName       Tag = 1047
	TagRequireFlags      Tag = 1048
	TagRequireName       Tag = 1049
	TagRequireVersion    Tag = 1050
	TagConflictFlags     Tag = 1053
	TagConflictName      Tag = 1054
	TagConflictVersion   Tag = 1055
	TagPreInProg         Tag = 1085
	TagPostInProg        Tag = 1086
	TagPreUnProg         Tag = 1087
	TagPostUnProg        Tag = 1088
	TagObsoleteName      Tag = 1090
	TagPrefixes          Tag = 1098
	TagInstPrefixes      Tag = 1099
	TagProvideFlags      Tag = 1112
	TagProvideVersion    Tag = 1113
	TagObsoleteFlags     Tag = 1114
	TagObsoleteVersion   Tag = 1115
	TagDirIndexes        Tag = 1116
	TagBaseNames         Tag = 1117
	TagDirNames          Tag = 1118
	TagOrigDirIndexes    Tag = 1119
	TagOrigBaseNames     Tag = 1120
	TagOrigDirNames      Tag = 1121
	TagPayloadCompressor Tag = 1125
	TagFileColors        Tag = 1140
	TagFileDependsX      Tag = 1143
	TagFileDependsN      Tag = 1144
	TagDependsDict       Tag = 1145
	TagPreTrans          Tag = 1151
	TagPostTrans         Tag = 1152
	TagPreTransProg      Tag = 1153
	TagPostTransProg     Tag = 1154
	TagLongSigSize       Tag = 5009
	TagCollections       Tag = 5029

	// Signature carries the id of the key the package was signed with
	TagSignature Tag = 5090

	// TagNEVR and TagNEVRA are synthesised on read and never stored
	TagNEVR  Tag = 5015
	TagNEVRA Tag = 5016
)

type tagInfo struct {
	name string
	typ  TagType
}

var tagTable = map[Tag]tagInfo{
	TagName:              {"name", TypeString},
	TagVersion:           {"version", TypeString},
	TagRelease:           {"release", TypeString},
	TagEpoch:             {"epoch", TypeNumber},
	TagSummary:           {"summary", TypeString},
	TagSize:              {"size", TypeNumber},
	TagOS:                {"os", TypeString},
	TagArch:              {"arch", TypeString},
	TagPreIn:             {"prein", TypeString},
	TagPostIn:            {"postin", TypeString},
	TagPreUn:             {"preun", TypeString},
	TagPostUn:            {"postun", TypeString},
	TagSourceRPM:         {"sourcerpm", TypeString},
	TagProvideName:       {"providename", TypeStringArray},
	TagRequireFlags:      {"requireflags", TypeNumberArray},
	TagRequireName:       {"requirename", TypeStringArray},
	TagRequireVersion:    {"requireversion", TypeStringArray},
	TagConflictFlags:     {"conflictflags", TypeNumberArray},
	TagConflictName:      {"conflictname", TypeStringArray},
	TagConflictVersion:   {"conflictversion", TypeStringArray},
	TagPreInProg:         {"preinprog", TypeString},
	TagPostInProg:        {"postinprog", TypeString},
	TagPreUnProg:         {"preunprog", TypeString},
	TagPostUnProg:        {"postunprog", TypeString},
	TagObsoleteName:      {"obsoletename", TypeStringArray},
	TagPrefixes:          {"prefixes", TypeStringArray},
	TagInstPrefixes:      {"instprefixes", TypeStringArray},
	TagProvideFlags:      {"provideflags", TypeNumberArray},
	TagProvideVersion:    {"provideversion", TypeStringArray},
	TagObsoleteFlags:     {"obsoleteflags", TypeNumberArray},
	TagObsoleteVersion:   {"obsoleteversion", TypeStringArray},
	TagDirIndexes:        {"dirindexes", TypeNumberArray},
	TagBaseNames:         {"basenames", TypeStringArray},
	TagDirNames:          {"dirnames", TypeStringArray},
	TagOrigDirIndexes:    {"origdirindexes", TypeNumberArray},
	TagOrigBaseNames:     {"origbasenames", TypeStringArray},
	TagOrigDirNames:      {"origdirnames", TypeStringArray},
	TagPayloadCompressor: {"payloadcompressor", TypeString},
	TagFileColors:        {"filecolors", TypeNumberArray},
	TagFileDependsX:      {"filedependsx", TypeNumberArray},
	TagFileDependsN:      {"filedependsn", TypeNumberArray},
	TagDependsDict:       {"dependsdict", TypeNumberArray},
	TagPreTrans:          {"pretrans", TypeString},
	TagPostTrans:         {"posttrans", TypeString},
	TagPreTransProg:      {"pretransprog", TypeString},
	TagPostTransProg:     {"posttransprog", TypeString},
	TagLongSigSize:       {"longsigsize", TypeNumber},
	TagCollections:       {"collections", TypeStringArray},
	TagSignature:         {"signature", TypeString},
	TagNEVR:              {"nevr", TypeString},
	TagNEVRA:             {"nevra", TypeString},
}

var tagsByName map[string]Tag

func init() {
	tagsByName = make(map[string]Tag, len(tagTable))
	for tag, info := range tagTable {
		tagsByName[info.name] = tag
	}
}

// Name returns the lower case tag name, or "" for unknown tags
func (t Tag) Name() string {
	return tagTable[t].name
}

// Type returns the value kind stored under the tag
func (t Tag) Type() TagType {
	return tagTable[t].typ
}

func (t Tag) String() string {
	if n := t.Name(); n != "" {
		return strings.ToUpper(n)
	}
	return "UNKNOWN"
}

// TagByName looks a tag up by its (case insensitive) name
func TagByName(name string) Tag {
	if tag, ok := tagsByName[strings.ToLower(name)]; ok {
		return tag
	}
	return TagNotFound
}
