package notify

var BuildMIME = buildMIME
