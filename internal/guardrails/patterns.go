package guardrails

// Patterns are compiled case-insensitive. RE2 treats accented letters as
// non-word characters, so \b never sits next to one.

// Domain questions whose wording overlaps a sensitive pattern.
var allowlistPatterns = []string{
	// gender statistics
	`\b(medals?|medallas|events?|eventos|athletes?|atletas|winners?|ganador(es|as)?)\b(\s+[\wáéíóúñ']+){0,3}?\s+(by|per|por)\s+(gender|sex|sexo|g[ée]nero)`,
	`\b(women'?s?|men'?s?|female|male|mujeres|hombres|femenin[oa]s?|masculin[oa]s?|damas|varones)\s+(medals?|events?|athletes?|teams?|competitions?|categor)`,
	`\b(medals?|medallas|events?|eventos|pruebas|competencias)\s+(de\s+|for\s+|won\s+by\s+|ganadas\s+por\s+)?(las\s+|los\s+)?(women|men|mujeres|hombres|femenin[oa]s?|masculin[oa]s?|damas|varones)\b`,
	`\bcu[áa]ntas\s+medallas\s+(ganaron|obtuvieron|consiguieron)\s+(las\s+|los\s+)?(mujeres|hombres|atletas)`,
	// sport names that contain schema vocabulary
	`\btable\s+tennis\b`,
	`\bfield\s+hockey\b`,
	`\btrack\s+and\s+field\b`,
	`\bhockey\s+(sobre|de)\s+(c[ée]sped|hierba|campo)`,
	// the standings sense of "table"
	`\bmedals?\s+(table|standings|tally|count)\b`,
	`\b(tabla|cuadro)\s+de\s+medallas\b`,
	`\bmedallero\b`,
	// Olympic history, not chat history
	`\b(olympic|olympics)\s+history\b`,
	`\bhistory\s+of\s+(the\s+)?(olympics?|games|medals?|summer\s+games)\b`,
	`\bhistoria\s+(ol[íi]mpica|de\s+(los\s+juegos|las\s+olimpiadas|las\s+medallas))`,
}

var structurePatterns = []string{
	`\b(what|which)\s+(tables|columns|fields|data\s+sets?|datasets?)\b`,
	`\bwhat\s+(data|information|info)\s+(do\s+you\s+have|is\s+(there|available)|are\s+you\s+using)\b`,
	`\b(list|describe|show|display)\s+(me\s+)?(all\s+)?(the\s+)?(available\s+)?(tables|columns|schema|structure)\b`,
	`\bshow\s+(me\s+)?(the\s+)?\w+\s+table\b`,
	`\b(database|data|table)\s+(structure|schema|layout)\b`,
	`\bstructure\s+of\s+(the\s+)?(database|data|table)\b`,
	`\bqu[ée]\s+(tablas|columnas|campos|datos)\s+(hay|tiene|tienes|existen|contiene)`,
	`\b(cu[áa]les|qu[ée])\s+son\s+(las\s+)?(tablas|columnas|campos)\b`,
	`\bmu[ée]strame\s+(la\s+)?tabla\b`,
	`\b(estructura|esquema)\s+de\s+(la\s+)?(base\s+de\s+datos|tabla|datos)\b`,
	`\bqu[ée]\s+informaci[óo]n\s+(tienes|hay|contiene)`,
}

var credentialPatterns = []string{
	`\b(passwords?|passwd|pwd|credentials?|credenciales|contrase(ñ|n)as?)\b`,
	`\b(password|contrase(ñ|n)a)\s*hash`,
	`\b(auth|access|bearer|session|jwt|refresh)\s*tokens?\b`,
	`\btokens?\s+(de\s+)?(acceso|sesi[óo]n|jwt)`,
	`\b(emails?|e-mails?|correos?\s+electr[óo]nicos?|correos?)\s+(of|from|de)\s+(the\s+|los\s+)?(users?|usuarios?|people|personas)\b`,
	`\b(list|show|give|get|dump|export)\s+(me\s+)?(all\s+|the\s+|every\s+)?(registered\s+)?(users|usernames|accounts)\b`,
	`\b(dame|muestra|mu[ée]strame|lista|listar|listame|exporta)\s+(todos\s+)?(los\s+)?(usuarios|cuentas)\b`,
	`\b(who|quienes|qui[ée]nes)\s+(are|son)\s+(the\s+|los\s+)?(registered\s+)?(users|usuarios)\b`,
	`\busuarios\s+registrados\b`,
	`\bregistered\s+users\b`,
	`\busernames?\b`,
}

var schemaPatterns = []string{
	`\binformation_schema\b`,
	`\bpg_(catalog|tables|class|attribute|namespace|roles|user|shadow|stat\w*|proc)\b`,
	`\b(tables|tablas)\s+(in|of|en|de)\s+(the\s+|la\s+)?(database|db|system|base\s+de\s+datos|sistema)\b`,
	`\b(column|columna|field|campo)\s+(names?|types?|nombres?|tipos?)\b`,
	`\b(nombres?|tipos?)\s+de\s+(las\s+)?(columnas|campos)\b`,
	`\b(schema|esquema|ddl|metadata|metadatos)\b`,
	`\b(describe|desc)\s+\w+_\w+\b`,
	`\b(primary|foreign)\s+keys?\b`,
	`\b(llaves?|claves?)\s+(primarias?|for[áa]neas?)\b`,
	`\bother\s+tables\b`,
	`\botras\s+tablas\b`,
}

var systemPatterns = []string{
	`\b(api|secret|private)[\s_-]?keys?\b`,
	`\b(claves?|llaves?)\s+(de\s+)?(api|secretas?|privadas?)\b`,
	`\b(environment|env)\s+variables?\b`,
	`\bvariables\s+de\s+entorno\b`,
	`\b(server|servidor|backend|host)\s+(config|configuration|configuraci[óo]n|settings|ajustes|version|versi[óo]n|ip|address|direcci[óo]n)`,
	`\b(system|server)\s+(configuration|settings|info|information)\b`,
	`\bconfiguraci[óo]n\s+del\s+(sistema|servidor)\b`,
	`\b(admin|administrator|administrador|root|superuser|superusuario)\s+(access|acceso|panel|privileges?|privilegios|rights|permissions?|permisos|password|account|cuenta)\b`,
	`\b(database|postgres|postgresql)\s+(version|user|password|connection|host)\b`,
	`\bconnection\s+string\b`,
	`\b(system\s+prompt|prompt\s+del\s+sistema)\b`,
	`\b(reveal|show|print|repeat|tell\s+me)\s+(me\s+)?(your|the)\s+(system\s+)?(prompt|instructions)\b`,
	`\b(what\s+are|cu[áa]les\s+son)\s+(your|tus)\s+(instructions|instrucciones)\b`,
	`\b(mu[ée]strame|revela|dime)\s+(tu|tus)\s+(prompt|instrucciones)\b`,
	`\b(anthropic|openai|claude)\s+(api|key|model\s+config)`,
}

var sqlCommandPatterns = []string{
	`\b(drop|truncate|alter)\s+(table|database|schema|index|view|column|role|user|function|trigger)\b`,
	`\btruncate\b`,
	`\bdelete\s+from\b`,
	`\binsert\s+into\b`,
	`\bupdate\s+\w+\s+set\b`,
	`\bcreate\s+(or\s+replace\s+)?(table|database|schema|index|view|user|role|function|trigger|extension)\b`,
	`\b(grant|revoke)\s+(all|select|insert|update|delete|usage|execute)\b`,
	`\b(exec|execute)\s*\(`,
	`\bcopy\s+\w+\s+(from|to)\b`,
	`\bpg_(sleep|read_file|terminate_backend)\b`,
	`;\s*(select|drop|delete|insert|update|alter|create|grant|truncate)\b`,
	`\b(borra|borrar|elimina|eliminar|modifica|modificar|inserta|insertar|actualiza|actualizar)\s+(la\s+|las\s+|los\s+|el\s+|un\s+|una\s+)?(tabla|tablas|registros?|filas?|datos|base\s+de\s+datos|columnas?)\b`,
	`\b(crea|crear)\s+(una\s+)?(tabla|vista|base\s+de\s+datos|usuario)\b`,
}

var conversationPatterns = []string{
	`\b(other|another|all|every)\s+(users?|people|persons?)('s|'|s')?\s+(conversations?|chats?|messages?|questions?|history|queries)\b`,
	`\b(conversations?|chats?|messages?|questions?|history|queries)\s+(of|from|by)\s+(other|another|all|every)\s+(users?|people|persons?)\b`,
	`\bwhat\s+(did|do|have)\s+(other|another)\s+(users?|people|persons?)\s+(ask|asked|say|said|search|searched)\b`,
	`\b(conversaciones|chats?|mensajes|preguntas|historial|consultas)\s+de\s+(otros?|otras?|todos\s+los|los\s+dem[áa]s)\s*(usuarios?|personas?)?`,
	`\bqu[ée]\s+(preguntaron|preguntan|buscaron|dijeron)\s+(otros?|los\s+dem[áa]s|otras?)`,
	`\b(chat|conversation|message)\s+(history|logs?)\b`,
	`\bhistorial\s+de\s+(chats?|conversaciones|mensajes|otros)`,
	`\b(all|todas)\s+(the\s+|las\s+)?(conversations|conversaciones|chats)\b`,
}
