package logger

var ParseLevelForTest = parseLevel
